package ontology

import "errors"

var (
	// ErrMalformedRecord indicates a record whose fields do not match the schema.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMissingGraph indicates a source document without an @graph array.
	ErrMissingGraph = errors.New("document has no @graph array")

	// ErrUnknownFormat indicates an unsupported export format.
	ErrUnknownFormat = errors.New("unknown export format")
)
