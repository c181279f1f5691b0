package storage

import (
	"testing"

	"github.com/poiesic/spelite/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalTriplet(t *testing.T) {
	tests := []struct {
		name    string
		triplet core.Triplet
		want    core.Object
	}{
		{
			name:    "string object",
			triplet: core.Triplet{ID: 7, Subject: "spells:fireball", Predicate: "dnd:school", Object: core.String("evocation")},
			want:    core.String("evocation"),
		},
		{
			name:    "localized string",
			triplet: core.Triplet{ID: 8, Subject: "spells:fireball", Predicate: "dnd:name", Object: core.String("Boule de feu"), Language: "fr"},
			want:    core.String("Boule de feu"),
		},
		{
			name:    "number object",
			triplet: core.Triplet{ID: 9, Subject: "spells:fireball", Predicate: "dnd:level", Object: core.Int(3)},
			want:    core.Int(3),
		},
		{
			name:    "boolean becomes number",
			triplet: core.Triplet{ID: 10, Subject: "spells:fireball", Predicate: "dnd:ritual", Object: core.Bool(true)},
			want:    core.Int(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalTriplet(MarshalTriplet(&tt.triplet))
			require.NoError(t, err)

			assert.Equal(t, tt.triplet.ID, decoded.ID)
			assert.Equal(t, tt.triplet.Subject, decoded.Subject)
			assert.Equal(t, tt.triplet.Predicate, decoded.Predicate)
			assert.Equal(t, tt.triplet.Language, decoded.Language)
			assert.Equal(t, tt.want, decoded.Object)
		})
	}
}

func TestUnmarshalTriplet_Truncated(t *testing.T) {
	data := MarshalTriplet(&core.Triplet{ID: 1, Subject: "spells:a", Predicate: "dnd:index", Object: core.String("a")})

	_, err := UnmarshalTriplet(data[:len(data)/2])
	assert.Error(t, err)
}

func TestMarshalUnmarshalEmbedding(t *testing.T) {
	entry := &core.Embedding{Text: "Fireball: A bright streak", Vector: []float32{0.25, -0.5, 1}}

	decoded, err := UnmarshalEmbedding(MarshalEmbedding(entry))
	require.NoError(t, err)
	assert.Equal(t, entry.Text, decoded.Text)
	assert.Equal(t, entry.Vector, decoded.Vector)
}

func TestUnmarshalEmbedding_Truncated(t *testing.T) {
	data := MarshalEmbedding(&core.Embedding{Text: "x", Vector: []float32{1, 2, 3, 4}})

	_, err := UnmarshalEmbedding(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestMarshalUnmarshalString(t *testing.T) {
	s, err := UnmarshalString(MarshalString("20260207-v4"))
	require.NoError(t, err)
	assert.Equal(t, "20260207-v4", s)
}
