package rules

import (
	"log/slog"
	"regexp"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

// Set is an ordered collection of compiled rules. A Set is populated before it is
// published and is never mutated afterwards, so concurrent Convert calls need no locking.
type Set struct {
	rules      []compiledRule
	normalize  bool
	normalForm norm.Form
}

type Option func(*Set)

// WithNormalization matches rules against the title normalized to form.
func WithNormalization(form norm.Form) Option {
	return func(s *Set) {
		s.normalize = true
		s.normalForm = form
	}
}

func NewSet(opts ...Option) *Set {
	s := &Set{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefaultSet returns a set holding only the built-in rule.
func NewDefaultSet(opts ...Option) *Set {
	s := NewSet(opts...)
	s.Add(DefaultRule())
	return s
}

// Add compiles rule and inserts it in priority order. An invalid pattern is logged and
// the set is left untouched.
func (s *Set) Add(rule Rule) bool {
	compiled, err := compile(rule)
	if err != nil {
		slog.Error("Rule discarded", "rule", rule.Name, "error", err)
		return false
	}

	s.rules = append(s.rules, compiled)
	sort.SliceStable(s.rules, func(i, j int) bool {
		return s.rules[i].Priority < s.rules[j].Priority
	})

	slog.Info("Added conversion rule", "rule", rule.Name, "priority", rule.Priority)
	return true
}

// Convert rewrites title with the first matching rule, or returns it unchanged.
func (s *Set) Convert(title string) string {
	converted, _, _ := s.Apply(title)
	return converted
}

// Apply is Convert that also reports which rule fired.
func (s *Set) Apply(title string) (string, string, bool) {
	subject := title
	if s.normalize {
		subject = s.normalForm.String(title)
	}

	for _, rule := range s.rules {
		match := rule.regex.FindStringSubmatchIndex(subject)
		if match == nil {
			continue
		}

		converted := expand(rule.Replacement, subject, match)
		slog.Info("Title converted", "rule", rule.Name, "original", title, "converted", converted)
		return converted, rule.Name, true
	}

	return title, "", false
}

// Rules returns the installed rules in the order they are tried.
func (s *Set) Rules() []Rule {
	return lo.Map(s.rules, func(r compiledRule, _ int) Rule {
		return r.Rule
	})
}

func (s *Set) Len() int {
	return len(s.rules)
}

func compile(rule Rule) (compiledRule, error) {
	regex, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return compiledRule{}, &CompileError{Rule: rule.Name, Err: err}
	}
	return compiledRule{Rule: rule, regex: regex}, nil
}

// Validate reports whether rule would be accepted by Add. The error is a *CompileError.
func Validate(rule Rule) error {
	_, err := compile(rule)
	return err
}
