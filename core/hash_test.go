package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragmentHashNormalizesLineEndings(t *testing.T) {
	lf := FragmentHash("def f():\n    return 1\n")
	crlf := FragmentHash("def f():\r\n    return 1\r\n")
	bare := FragmentHash("def f():\n    return 1")

	assert.Equal(t, lf, crlf)
	assert.Equal(t, lf, bare)
}

func TestFragmentHashStableAcrossCalls(t *testing.T) {
	a := FragmentHash("class C:\n    pass")
	b := FragmentHash("class C:\n    pass")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFragmentHashDiffersOnContent(t *testing.T) {
	assert.NotEqual(t, FragmentHash("return 1"), FragmentHash("return 2"))
}

func TestCanonicalContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\r\n", "a\nb"},
		{"bare cr", "a\rb", "a\nb"},
		{"trailing newlines stripped", "a\n\n\n", "a"},
		{"interior blanks kept", "a\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalContent(tt.in))
		})
	}
}
