package core

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored rows.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ObjectKind identifies which scalar an Object carries.
type ObjectKind uint8

const (
	// KindString is a text literal.
	KindString ObjectKind = iota + 1
	// KindNumber is a numeric literal.
	KindNumber
	// KindBool is a boolean literal. Stored as the number 0 or 1.
	KindBool
)

func (k ObjectKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Object is the value position of a triplet. The set of kinds is closed:
// string, number or boolean.
type Object struct {
	kind ObjectKind
	str  string
	num  float64
}

// String creates a text object.
func String(s string) Object {
	return Object{kind: KindString, str: s}
}

// Number creates a numeric object.
func Number(f float64) Object {
	return Object{kind: KindNumber, num: f}
}

// Int creates a numeric object from an integer.
func Int(n int) Object {
	return Object{kind: KindNumber, num: float64(n)}
}

// Bool creates a boolean object.
func Bool(b bool) Object {
	if b {
		return Object{kind: KindBool, num: 1}
	}
	return Object{kind: KindBool, num: 0}
}

// Kind returns the object's kind. The zero Object has an invalid kind.
func (o Object) Kind() ObjectKind {
	return o.kind
}

// IsZero reports whether the object was never set.
func (o Object) IsZero() bool {
	return o.kind == 0
}

// AsString returns the text value and whether the object is a string.
func (o Object) AsString() (string, bool) {
	return o.str, o.kind == KindString
}

// AsNumber returns the numeric value. Booleans report 0 or 1.
func (o Object) AsNumber() (float64, bool) {
	return o.num, o.kind == KindNumber || o.kind == KindBool
}

// AsInt returns the numeric value truncated to an int.
func (o Object) AsInt() (int, bool) {
	n, ok := o.AsNumber()
	return int(n), ok
}

// AsBool interprets the object as a boolean. Numbers 0 and 1 are accepted
// since that is how booleans are stored.
func (o Object) AsBool() (bool, bool) {
	switch o.kind {
	case KindBool:
		return o.num != 0, true
	case KindNumber:
		if o.num == 0 || o.num == 1 {
			return o.num == 1, true
		}
	}
	return false, false
}

// Stored returns the form the object takes in the store: booleans become
// the numbers 0 and 1, everything else is unchanged.
func (o Object) Stored() Object {
	if o.kind == KindBool {
		return Object{kind: KindNumber, num: o.num}
	}
	return o
}

// Equal compares the stored forms of two objects.
func (o Object) Equal(other Object) bool {
	a, b := o.Stored(), other.Stored()
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindString {
		return a.str == b.str
	}
	return a.num == b.num
}

// String renders the object as a literal.
func (o Object) String() string {
	switch o.kind {
	case KindString:
		return o.str
	case KindBool:
		return strconv.FormatBool(o.num != 0)
	case KindNumber:
		if o.num == math.Trunc(o.num) && math.Abs(o.num) < 1e15 {
			return strconv.FormatInt(int64(o.num), 10)
		}
		return strconv.FormatFloat(o.num, 'g', -1, 64)
	default:
		return ""
	}
}

// Triplet is a single (subject, predicate, object[, language]) record.
type Triplet struct {
	ID        ID
	Subject   string
	Predicate string
	Object    Object
	Language  string // Empty when the value is not localized
}

// Embedding is a cached sentence embedding keyed by its exact source text.
type Embedding struct {
	Text   string
	Vector []float32
}
