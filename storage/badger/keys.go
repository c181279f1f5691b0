package badger

import (
	"encoding/binary"
	"math"

	"github.com/poiesic/spelite/core"
)

// Key prefixes for different data types
const (
	tripletPrefix          = "trp:"
	tripletSubjectPrefix   = "trps:"
	tripletPredObjPrefix   = "trpo:"
	tripletPredicatePrefix = "trpp:"
	tripletLanguagePrefix  = "trpl:"
	tripletIDSeq           = "trpseq"
	embeddingPrefix        = "emb:"
	metaPrefix             = "meta:"
)

// keySep separates variable-length components of composite keys.
// Validation rejects NUL inside subjects, predicates and languages.
const keySep = 0x00

// Strings longer than this are indexed by hash; lookups compare the real value.
const maxInlineObjectKey = 256

// tripletPrefixes lists every prefix owned by the triplet table.
var tripletPrefixes = []string{
	tripletPrefix,
	tripletSubjectPrefix,
	tripletPredObjPrefix,
	tripletPredicatePrefix,
	tripletLanguagePrefix,
}

// makeTripletKey generates a key for a triplet by ID.
// Format: prefix + be64(id)
func makeTripletKey(id core.ID) []byte {
	buf := make([]byte, len(tripletPrefix)+8)
	offset := copy(buf, tripletPrefix)
	// BigEndian so key order follows insertion order
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeComponentPrefix builds prefix + part + sep [+ part + sep]...
func makeComponentPrefix(prefix string, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p) + 1
	}
	buf := make([]byte, 0, size+8)
	buf = append(buf, prefix...)
	for _, p := range parts {
		buf = append(buf, p...)
		buf = append(buf, keySep)
	}
	return buf
}

// appendID appends the big-endian ID to an index prefix.
func appendID(prefix []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(prefix, uint64(id))
}

// makeSubjectKey generates a composite key for the subject index.
// Format: prefix:subject\0be64(id)
func makeSubjectKey(subject string, id core.ID) []byte {
	return appendID(makeComponentPrefix(tripletSubjectPrefix, []byte(subject)), id)
}

// makePredObjPrefix generates the scan prefix for a (predicate, object) pair.
// Format: prefix:predicate\0objectKey\0
func makePredObjPrefix(predicate string, object core.Object) []byte {
	return makeComponentPrefix(tripletPredObjPrefix, []byte(predicate), objectKey(object))
}

// makePredObjKey generates a composite key for the (predicate, object) index.
func makePredObjKey(predicate string, object core.Object, id core.ID) []byte {
	return appendID(makePredObjPrefix(predicate, object), id)
}

// makePredicateKey generates a composite key for the predicate index.
func makePredicateKey(predicate string, id core.ID) []byte {
	return appendID(makeComponentPrefix(tripletPredicatePrefix, []byte(predicate)), id)
}

// makeLanguageKey generates a composite key for the language index.
func makeLanguageKey(language string, id core.ID) []byte {
	return appendID(makeComponentPrefix(tripletLanguagePrefix, []byte(language)), id)
}

// objectKey encodes the stored form of an object for the (predicate, object)
// index: a kind byte followed by the value. Numbers are fixed width so no
// number key is a prefix of another.
func objectKey(object core.Object) []byte {
	object = object.Stored()
	if s, ok := object.AsString(); ok {
		if len(s) > maxInlineObjectKey {
			buf := []byte{'h'}
			return binary.BigEndian.AppendUint64(buf, uint64(core.IDFromContent(s)))
		}
		buf := make([]byte, 0, len(s)+1)
		buf = append(buf, 's')
		return append(buf, s...)
	}
	n, _ := object.AsNumber()
	buf := []byte{'n'}
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(n))
}

// idFromIndexKey extracts the trailing ID of an index key.
func idFromIndexKey(key []byte) (core.ID, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:])), true
}

// makeEmbeddingKey generates a key for an embedding by content ID of its text.
func makeEmbeddingKey(text string) []byte {
	buf := make([]byte, len(embeddingPrefix)+8)
	offset := copy(buf, embeddingPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(text)))
	return buf
}

// makeMetaKey generates a key for a meta slot.
func makeMetaKey(key string) []byte {
	return []byte(metaPrefix + key)
}
