package rules

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	re := regexp.MustCompile(`(\w+)-(\w+)(?:-(\w+))?`)

	tests := []struct {
		name     string
		template string
		subject  string
		expected string
	}{
		{"whole match", "<$0>", "ab-cd", "<ab-cd>"},
		{"reorder", "$2 $1", "ab-cd", "cd ab"},
		{"repeat", "$1$1", "ab-cd", "abab"},
		{"unmatched optional group", "$1 $3", "ab-cd", "ab $3"},
		{"missing group", "$1 $9", "ab-cd", "ab $9"},
		{"multi digit beyond groups", "$10", "ab-cd", "$10"},
		{"lone dollar", "cost $ $x", "ab-cd", "cost $ $x"},
		{"trailing dollar", "$1$", "ab-cd", "ab$"},
		{"no placeholders", "static", "ab-cd", "static"},
		{"empty template", "", "ab-cd", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := re.FindStringSubmatchIndex(tt.subject)
			assert.Equal(t, tt.expected, expand(tt.template, tt.subject, match))
		})
	}
}

func TestExpandDoesNotRescanCaptures(t *testing.T) {
	re := regexp.MustCompile(`\[(.*?)\]\[(.*?)\]`)
	subject := "[$2][second]"
	match := re.FindStringSubmatchIndex(subject)

	assert.Equal(t, "$2 second", expand("$1 $2", subject, match))
}
