// Package placeholder discovers and substitutes the two placeholder kinds a
// message template may carry: representative attributes written as
// {mp.Field} and free-text questions written as {Label?}.
package placeholder

import "regexp"

var (
	questionRe  = regexp.MustCompile(`\{([^{}?\n]+)\?\}`)
	attributeRe = regexp.MustCompile(`\{mp\.([^{}\n]+)\}`)
)

// Scan returns the distinct question labels in tmpl, in order of first
// appearance. A template without questions yields an empty slice.
func Scan(tmpl string) []string {
	return distinct(questionRe.FindAllStringSubmatch(tmpl, -1))
}

// Attributes returns the distinct attribute names referenced as {mp.Name}.
func Attributes(tmpl string) []string {
	return distinct(attributeRe.FindAllStringSubmatch(tmpl, -1))
}

// Placeholder returns the literal question placeholder for label.
func Placeholder(label string) string {
	return "{" + label + "?}"
}

// Attribute returns the literal attribute placeholder for name.
func Attribute(name string) string {
	return "{mp." + name + "}"
}

func distinct(matches [][]string) []string {
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
