// Package form turns the question labels found in a template into the input
// fields a visitor fills in.
package form

import (
	"regexp"

	"github.com/mpmail/internal/placeholder"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Field is one labeled text input bound to the literal placeholder it
// replaces.
type Field struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Value       string `json:"value"`
}

// Synthesize builds one empty field per label, in order. It is a full
// rebuild: nothing from a previous form survives.
func Synthesize(labels []string) []Field {
	fields := make([]Field, 0, len(labels))
	for _, label := range labels {
		fields = append(fields, Field{
			ID:          InputID(label),
			Label:       label,
			Placeholder: placeholder.Placeholder(label),
		})
	}
	return fields
}

// FromTemplate scans tmpl and synthesizes its form.
func FromTemplate(tmpl string) []Field {
	return Synthesize(placeholder.Scan(tmpl))
}

// InputID derives the element id for label.
func InputID(label string) string {
	return "input-" + whitespaceRe.ReplaceAllString(label, "-")
}

// Fill sets each field's value from answers keyed by placeholder. Answers
// with no matching field are ignored and fields with no answer stay empty.
func Fill(fields []Field, answers map[string]string) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Value = answers[f.Placeholder]
		out[i] = f
	}
	return out
}

// Answers maps each field's placeholder to its value.
func Answers(fields []Field) map[string]string {
	answers := make(map[string]string, len(fields))
	for _, f := range fields {
		answers[f.Placeholder] = f.Value
	}
	return answers
}

// Values converts fields for the renderer.
func Values(fields []Field) []placeholder.Field {
	out := make([]placeholder.Field, len(fields))
	for i, f := range fields {
		out[i] = placeholder.Field{Label: f.Label, Placeholder: f.Placeholder, Value: f.Value}
	}
	return out
}
