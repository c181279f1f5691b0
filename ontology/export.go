package ontology

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"math"
	"strings"

	"github.com/poiesic/spelite/core"
)

// Namespace URIs used by the exporters.
const (
	BaseURI    = "http://spelite.app/ontology/dnd#"
	RDFSchema  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSSchema = "http://www.w3.org/2000/01/rdf-schema#"
	XSDSchema  = "http://www.w3.org/2001/XMLSchema#"
)

// Format names an export serialization.
type Format string

const (
	FormatJSONLD Format = "jsonld"
	FormatRDFXML Format = "rdfxml"
)

// Export serializes triplets in the requested format.
func Export(triplets []core.Triplet, format Format) ([]byte, error) {
	switch format {
	case FormatJSONLD:
		return ExportJSONLD(triplets)
	case FormatRDFXML:
		return ExportRDFXML(triplets)
	default:
		return nil, ErrUnknownFormat
	}
}

// MapToURI expands a dnd: name into a full URI. Other names are returned as is.
func MapToURI(local string) string {
	if strings.HasPrefix(local, Namespace) {
		return BaseURI + local[len(Namespace):]
	}
	return local
}

// exportValue returns the JSON value of a triplet's object, turning the
// stored 0/1 of boolean predicates back into booleans.
func exportValue(t core.Triplet) any {
	if IsBoolean(t.Predicate) {
		if b, ok := t.Object.AsBool(); ok {
			return b
		}
	}
	if s, ok := t.Object.AsString(); ok {
		return s
	}
	n, _ := t.Object.AsNumber()
	if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
		return int64(n)
	}
	return n
}

// groupBySubject groups triplets by subject in first-appearance order.
func groupBySubject(triplets []core.Triplet) ([]string, map[string][]core.Triplet) {
	var order []string
	groups := make(map[string][]core.Triplet)
	for _, t := range triplets {
		if _, ok := groups[t.Subject]; !ok {
			order = append(order, t.Subject)
		}
		groups[t.Subject] = append(groups[t.Subject], t)
	}
	return order, groups
}

// ExportJSONLD renders triplets as a JSON-LD document with one node per
// subject. Localized values become {"@value", "@language"} objects and
// repeated predicates become arrays.
func ExportJSONLD(triplets []core.Triplet) ([]byte, error) {
	order, groups := groupBySubject(triplets)

	graph := make([]map[string]any, 0, len(order))
	for _, subject := range order {
		node := map[string]any{"@id": MapToURI(subject)}
		for _, t := range groups[subject] {
			prop := LocalName(t.Predicate)
			var value any = exportValue(t)
			if t.Language != "" {
				value = map[string]any{"@value": value, "@language": t.Language}
				existing, ok := node[prop]
				switch {
				case !ok:
					node[prop] = []any{value}
				case isSlice(existing):
					node[prop] = append(existing.([]any), value)
				default:
					node[prop] = []any{existing, value}
				}
				continue
			}
			existing, ok := node[prop]
			switch {
			case !ok:
				node[prop] = value
			case isSlice(existing):
				node[prop] = append(existing.([]any), value)
			default:
				node[prop] = []any{existing, value}
			}
		}
		graph = append(graph, node)
	}

	doc := map[string]any{
		"@context": map[string]string{
			"@vocab": BaseURI,
			"rdf":    RDFSchema,
			"rdfs":   RDFSSchema,
			"xsd":    XSDSchema,
		},
		"@graph": graph,
	}
	return json.MarshalIndent(doc, "", "  ")
}

func isSlice(v any) bool {
	_, ok := v.([]any)
	return ok
}

// ExportRDFXML renders triplets as RDF/XML, one rdf:Description per subject.
func ExportRDFXML(triplets []core.Triplet) ([]byte, error) {
	order, groups := groupBySubject(triplets)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "rdf:RDF"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:rdf"}, Value: RDFSchema},
			{Name: xml.Name{Local: "xmlns:rdfs"}, Value: RDFSSchema},
			{Name: xml.Name{Local: "xmlns:dnd"}, Value: BaseURI},
			{Name: xml.Name{Local: "xmlns:xsd"}, Value: XSDSchema},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	for _, subject := range order {
		desc := xml.StartElement{
			Name: xml.Name{Local: "rdf:Description"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "rdf:about"}, Value: MapToURI(subject)}},
		}
		if err := enc.EncodeToken(desc); err != nil {
			return nil, err
		}
		for _, t := range groups[subject] {
			if err := encodeProperty(enc, t); err != nil {
				return nil, err
			}
		}
		if err := enc.EncodeToken(desc.End()); err != nil {
			return nil, err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encodeProperty(enc *xml.Encoder, t core.Triplet) error {
	qname := t.Predicate
	if strings.HasPrefix(t.Predicate, Namespace) {
		qname = "dnd:" + LocalName(t.Predicate)
	}
	el := xml.StartElement{Name: xml.Name{Local: qname}}

	value := exportValue(t)
	text := t.Object.String()
	switch v := value.(type) {
	case bool:
		text = core.Bool(v).String()
		el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "rdf:datatype"}, Value: XSDSchema + "boolean"})
	case int64:
		if t.Language == "" {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "rdf:datatype"}, Value: XSDSchema + "integer"})
		}
	case float64:
		if t.Language == "" {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "rdf:datatype"}, Value: XSDSchema + "decimal"})
		}
	case string:
		if t.Language == "" && strings.HasPrefix(v, Namespace) {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "rdf:resource"}, Value: MapToURI(v)})
			if err := enc.EncodeToken(el); err != nil {
				return err
			}
			return enc.EncodeToken(el.End())
		}
	}
	if t.Language != "" {
		el.Attr = append([]xml.Attr{{Name: xml.Name{Local: "xml:lang"}, Value: t.Language}}, el.Attr...)
	}

	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}
	return enc.EncodeToken(el.End())
}
