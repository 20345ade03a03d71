package rules

import (
	"context"
	"fmt"
	"regexp"
)

// Rule is a named pattern/replacement pair. Lower priority values are tried first.
type Rule struct {
	Name        string `yaml:"name" toml:"name" json:"name"`
	Pattern     string `yaml:"pattern" toml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" toml:"replacement" json:"replacement"`
	Priority    uint32 `yaml:"priority" toml:"priority" json:"priority"`
}

type compiledRule struct {
	Rule
	regex *regexp.Regexp
}

// CompileError reports a rule whose pattern could not be compiled.
type CompileError struct {
	Rule string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid regex pattern for rule '%s': %v", e.Rule, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Source supplies rules from persisted configuration.
type Source interface {
	LoadRules(ctx context.Context) ([]Rule, error)
}
