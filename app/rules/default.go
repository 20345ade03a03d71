package rules

// Bracketed release titles of the form
// [group][名侦探柯南][第N集 label][source][language](optional [extra])[resolution].
// Downstream consumers depend on the output shape, keep it stable.
const (
	defaultRuleName        = "Detective Conan"
	defaultRulePattern     = `\[([^\]]+)\]\[名侦探柯南\]\[第(\d+)集\s+([^]]+)\]\[([^]]+)\]\[([^]]+)\](?:\[([^]]+)\])?\[([^]]+)\]`
	defaultRuleReplacement = " [$1] Detective Conan - $2 ($4 $7 $5) "
	defaultRulePriority    = 1
)

// DefaultRule returns the built-in episode title rule.
func DefaultRule() Rule {
	return Rule{
		Name:        defaultRuleName,
		Pattern:     defaultRulePattern,
		Replacement: defaultRuleReplacement,
		Priority:    defaultRulePriority,
	}
}
