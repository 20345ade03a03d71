package rules

import (
	"strconv"
	"strings"
)

// expand renders template in one pass. match holds submatch index pairs for subject as
// returned by FindStringSubmatchIndex. A $N that names a missing or non-participating
// group is written as-is. Substituted text is not rescanned.
func expand(template, subject string, match []int) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}

		j := i + 1
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte('$')
			i++
			continue
		}

		placeholder := template[i:j]
		group, err := strconv.Atoi(template[i+1 : j])
		if err != nil || group >= len(match)/2 || match[2*group] < 0 {
			b.WriteString(placeholder)
		} else {
			b.WriteString(subject[match[2*group]:match[2*group+1]])
		}
		i = j
	}

	return b.String()
}
