package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{"empty", "", 4, 0, nil},
		{"shorter than chunk", "abc", 4, 0, []string{"abc"}},
		{"fixed windows", "abcdefghij", 4, 0, []string{"abcd", "efgh", "ij"}},
		{"overlap", "abcdefgh", 4, 2, []string{"abcd", "cdef", "efgh"}},
		{"overlap not smaller than size", "abcdefgh", 4, 4, []string{"abcd", "efgh"}},
		{"multibyte", "ééééé", 2, 0, []string{"éé", "éé", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitText(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestSplitText_CoversInput(t *testing.T) {
	text := strings.Repeat("0123456789", 130)
	chunks := SplitText(text, 600, 0)
	assert.Len(t, chunks, 3)
	assert.Equal(t, text, strings.Join(chunks, ""))
}
