package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Reference
	}{
		{"resource and fragment", "dijn0159.smil#mxhp_0001", Reference{"dijn0159.smil", "mxhp_0001"}},
		{"resource only", "chapter.smil", Reference{"chapter.smil", ""}},
		{"fragment only", "#text_1", Reference{"", "text_1"}},
		{"empty", "", Reference{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ParseReference(tt.input)
			assert.Equal(t, tt.expected, ref)
			assert.Equal(t, tt.input, ref.String())
		})
	}
}

func TestReferenceIsZero(t *testing.T) {
	assert.True(t, Reference{}.IsZero())
	assert.False(t, ParseReference("a.smil").IsZero())
}
