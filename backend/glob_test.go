package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"*", "anything", true},
		{"user:*", "user:1", true},
		{"user:?", "user:10", false},
		{"h[ae]llo", "hello", true},
		{"h[ae]llo", "hallo", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[a-b]llo", "hbllo", true},
		{"h[b-a]llo", "hallo", true},
		{"h[a-b]llo", "hcllo", false},
		{`h\*llo`, "h*llo", true},
		{`h\*llo`, "hello", false},
		{`h[\]]llo`, "h]llo", true},
		{"[ab]*", "banana", true},
		{"[ab]*", "cherry", false},
		{"*[0-9]", "key7", true},
		{"*[0-9]", "key", false},
		{"h[ab", "ha", true},
		{"[a]", "", false},
		{"a**b", "axxb", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.key, tt.pattern), "%q ~ %q", tt.key, tt.pattern)
	}
}
