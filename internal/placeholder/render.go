package placeholder

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Field is a filled question: the literal placeholder it replaces and the
// answer to put in its place.
type Field struct {
	Label       string
	Placeholder string
	Value       string
}

// ValidationError reports a question left unanswered.
type ValidationError struct {
	Label string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q is empty", e.Label)
}

// Prompt is the message shown to the visitor.
func (e *ValidationError) Prompt() string {
	return fmt.Sprintf("Please fill out the \"%s\" field.", e.Label)
}

// Validate returns a *ValidationError for the first field, in form order,
// whose value is empty.
func Validate(fields []Field) error {
	for _, f := range fields {
		if f.Value == "" {
			return &ValidationError{Label: f.Label}
		}
	}
	return nil
}

// Render validates fields and then substitutes every {mp.Attr} present in
// rec and every field placeholder in tmpl. When validation fails no body is
// produced. Substitution is literal and single pass: replaced text is never
// scanned again.
func Render(tmpl string, rec map[string]string, fields []Field) (string, error) {
	if err := Validate(fields); err != nil {
		return "", err
	}

	pairs := attributePairs(rec)
	for _, f := range fields {
		if f.Placeholder == "" {
			continue
		}
		pairs = append(pairs, f.Placeholder, f.Value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// SubstituteAttributes replaces every {mp.Attr} for the attributes in rec.
// Attribute placeholders naming an attribute rec does not carry are left
// as they are.
func SubstituteAttributes(tmpl string, rec map[string]string) string {
	if len(rec) == 0 {
		return tmpl
	}
	return strings.NewReplacer(attributePairs(rec)...).Replace(tmpl)
}

// attributePairs orders longer names first so a name that prefixes another
// can never shadow it.
func attributePairs(rec map[string]string) []string {
	names := slices.SortedFunc(maps.Keys(rec), func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	pairs := make([]string, 0, len(rec)*2)
	for _, name := range names {
		pairs = append(pairs, Attribute(name), rec[name])
	}
	return pairs
}
