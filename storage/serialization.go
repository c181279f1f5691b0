// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"math"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/spelite/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

func objectSize(o core.Object) int {
	o = o.Stored()
	size := varint.Uint64.Size(uint64(o.Kind()))
	if s, ok := o.AsString(); ok {
		return size + ord.String.Size(s)
	}
	n, _ := o.AsNumber()
	return size + raw.Float64.Size(n)
}

func marshalObject(o core.Object, bs []byte) int {
	o = o.Stored()
	n := varint.Uint64.Marshal(uint64(o.Kind()), bs)
	if s, ok := o.AsString(); ok {
		return n + ord.String.Marshal(s, bs[n:])
	}
	f, _ := o.AsNumber()
	return n + raw.Float64.Marshal(f, bs[n:])
}

func unmarshalObject(bs []byte) (core.Object, int, error) {
	kind, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return core.Object{}, n, err
	}
	switch core.ObjectKind(kind) {
	case core.KindString:
		s, m, err := ord.String.Unmarshal(bs[n:])
		return core.String(s), n + m, err
	case core.KindNumber, core.KindBool:
		f, m, err := raw.Float64.Unmarshal(bs[n:])
		return core.Number(f), n + m, err
	default:
		return core.Object{}, n, fmt.Errorf("unknown object kind %d", kind)
	}
}

// MarshalObject serializes the stored form of an Object.
func MarshalObject(o core.Object) []byte {
	buf := make([]byte, objectSize(o))
	marshalObject(o, buf)
	return buf
}

// MarshalTriplet serializes a Triplet to bytes. Booleans are written in
// their stored 0/1 form.
func MarshalTriplet(t *core.Triplet) []byte {
	size := varint.Uint64.Size(uint64(t.ID)) +
		ord.String.Size(t.Subject) +
		ord.String.Size(t.Predicate) +
		objectSize(t.Object) +
		ord.String.Size(t.Language)
	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(t.ID), buf)
	n += ord.String.Marshal(t.Subject, buf[n:])
	n += ord.String.Marshal(t.Predicate, buf[n:])
	n += marshalObject(t.Object, buf[n:])
	ord.String.Marshal(t.Language, buf[n:])
	return buf
}

// UnmarshalTriplet deserializes a Triplet from bytes.
func UnmarshalTriplet(data []byte) (*core.Triplet, error) {
	var (
		t   core.Triplet
		n   int
		m   int
		err error
	)
	id, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	t.ID = core.ID(id)
	n += m
	if t.Subject, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: subject: %w", ErrSerializationFailed, err)
	}
	n += m
	if t.Predicate, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: predicate: %w", ErrSerializationFailed, err)
	}
	n += m
	if t.Object, m, err = unmarshalObject(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: object: %w", ErrSerializationFailed, err)
	}
	n += m
	if t.Language, _, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: language: %w", ErrSerializationFailed, err)
	}
	return &t, nil
}

// MarshalEmbedding serializes an Embedding (text and vector) to bytes.
func MarshalEmbedding(e *core.Embedding) []byte {
	size := ord.String.Size(e.Text) + varint.Uint64.Size(uint64(len(e.Vector)))
	for _, v := range e.Vector {
		size += raw.Float32.Size(v)
	}
	buf := make([]byte, size)
	n := ord.String.Marshal(e.Text, buf)
	n += varint.Uint64.Marshal(uint64(len(e.Vector)), buf[n:])
	for _, v := range e.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalEmbedding deserializes an Embedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	text, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: text: %w", ErrSerializationFailed, err)
	}
	length, m, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: length: %w", ErrSerializationFailed, err)
	}
	n += m
	// each float32 occupies four bytes
	if length > math.MaxInt32 || int(length)*4 > len(data)-n {
		return nil, ErrTruncatedData
	}
	vector := make([]float32, length)
	for i := range vector {
		if vector[i], m, err = raw.Float32.Unmarshal(data[n:]); err != nil {
			return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
		}
		n += m
	}
	return &core.Embedding{Text: text, Vector: vector}, nil
}

// MarshalString serializes a meta value.
func MarshalString(s string) []byte {
	buf := make([]byte, ord.String.Size(s))
	ord.String.Marshal(s, buf)
	return buf
}

// UnmarshalString deserializes a meta value.
func UnmarshalString(data []byte) (string, error) {
	s, _, err := ord.String.Unmarshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return s, nil
}
