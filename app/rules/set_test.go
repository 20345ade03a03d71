package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestDefaultRuleConversion(t *testing.T) {
	set := NewDefaultSet()

	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "with optional group",
			title:    "[银色子弹字幕组][名侦探柯南][第1170集 食人教室的玄机（后篇）][WEBRIP][简繁日多语MKV][PGS][1080P]",
			expected: " [银色子弹字幕组] Detective Conan - 1170 (WEBRIP 1080P 简繁日多语MKV) ",
		},
		{
			name:     "without optional group",
			title:    " [银色子弹字幕组][名侦探柯南][第1167集 17年前的真相 皇后的谋略][WEBRIP][简繁日多语MKV][1080P] ",
			expected: " [银色子弹字幕组] Detective Conan - 1167 (WEBRIP 1080P 简繁日多语MKV) ",
		},
		{
			name:     "fansub sample",
			title:    "[fansub][名侦探柯南][第1170集 食人教室的玄机（后篇）][WEBRIP][简繁日多语MKV][PGS][1080P]",
			expected: " [fansub] Detective Conan - 1170 (WEBRIP 1080P 简繁日多语MKV) ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, set.Convert(tt.title))
		})
	}
}

func TestConvertNoMatchReturnsInput(t *testing.T) {
	set := NewDefaultSet()

	titles := []string{
		"Some random title that doesn't match",
		"",
		"[group][名侦探柯南][no episode]",
		"  padded  ",
	}

	for _, title := range titles {
		assert.Equal(t, title, set.Convert(title))
	}
}

func TestConvertEmptySet(t *testing.T) {
	set := NewSet()
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, "anything", set.Convert("anything"))
}

func TestAbsentGroupPlaceholderStaysLiteral(t *testing.T) {
	set := NewSet()
	require.True(t, set.Add(Rule{
		Name:        "with optional",
		Pattern:     defaultRulePattern,
		Replacement: "$1|$6|$7",
		Priority:    1,
	}))

	withExtra := set.Convert("[a][名侦探柯南][第1集 x][b][c][d][e]")
	assert.Equal(t, "a|d|e", withExtra)

	withoutExtra := set.Convert("[a][名侦探柯南][第1集 x][b][c][e]")
	assert.Equal(t, "a|$6|e", withoutExtra)
}

func TestPriorityOrderingIndependentOfInsertion(t *testing.T) {
	low := Rule{Name: "low", Pattern: `episode`, Replacement: "low", Priority: 1}
	high := Rule{Name: "high", Pattern: `episode (\d+)`, Replacement: "high $1", Priority: 5}

	forward := NewSet()
	forward.Add(low)
	forward.Add(high)

	reverse := NewSet()
	reverse.Add(high)
	reverse.Add(low)

	assert.Equal(t, "low", forward.Convert("episode 12"))
	assert.Equal(t, "low", reverse.Convert("episode 12"))
}

func TestEqualPriorityKeepsInsertionOrder(t *testing.T) {
	set := NewSet()
	set.Add(Rule{Name: "first", Pattern: `a`, Replacement: "first", Priority: 3})
	set.Add(Rule{Name: "second", Pattern: `a`, Replacement: "second", Priority: 3})
	set.Add(Rule{Name: "zero", Pattern: `zzz`, Replacement: "zero", Priority: 0})

	names := make([]string, 0, set.Len())
	for _, rule := range set.Rules() {
		names = append(names, rule.Name)
	}
	assert.Equal(t, []string{"zero", "first", "second"}, names)
	assert.Equal(t, "first", set.Convert("a"))
}

func TestAtMostOneRuleFires(t *testing.T) {
	set := NewSet()
	set.Add(Rule{Name: "one", Pattern: `foo`, Replacement: "bar", Priority: 1})
	set.Add(Rule{Name: "two", Pattern: `bar`, Replacement: "baz", Priority: 2})

	assert.Equal(t, "bar", set.Convert("foo"))
}

func TestInvalidPatternIsDiscarded(t *testing.T) {
	set := NewDefaultSet()
	before := set.Convert("title (broken")

	ok := set.Add(Rule{Name: "broken", Pattern: `(unclosed`, Replacement: "never", Priority: 0})
	assert.False(t, ok)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, before, set.Convert("title (broken"))
	assert.Equal(t, "(unclosed", set.Convert("(unclosed"))

	ok = set.Add(Rule{Name: "valid", Pattern: `broken`, Replacement: "fixed", Priority: 0})
	assert.True(t, ok)
	assert.Equal(t, "fixed", set.Convert("title (broken"))
}

func TestCompileErrorType(t *testing.T) {
	_, err := compile(Rule{Name: "bad", Pattern: `[`})
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "bad", compileErr.Rule)
	assert.Contains(t, err.Error(), "bad")
}

func TestApplyReportsRule(t *testing.T) {
	set := NewDefaultSet()

	converted, rule, matched := set.Apply("[g][名侦探柯南][第7集 x][WEB][CHS][720P]")
	assert.True(t, matched)
	assert.Equal(t, defaultRuleName, rule)
	assert.Equal(t, " [g] Detective Conan - 7 (WEB 720P CHS) ", converted)

	converted, rule, matched = set.Apply("plain")
	assert.False(t, matched)
	assert.Empty(t, rule)
	assert.Equal(t, "plain", converted)
}

func TestNormalization(t *testing.T) {
	decomposed := "Cafe\u0301 episode"
	rule := Rule{Name: "cafe", Pattern: "Caf\u00e9", Replacement: "matched", Priority: 1}

	plain := NewSet()
	plain.Add(rule)
	assert.Equal(t, decomposed, plain.Convert(decomposed))

	normalized := NewSet(WithNormalization(norm.NFC))
	normalized.Add(rule)
	assert.Equal(t, "matched", normalized.Convert(decomposed))

	// identity fallback keeps the original form
	unmatched := "Re\u0301sume\u0301"
	assert.Equal(t, unmatched, normalized.Convert(unmatched))
}
