// Package compose turns a visitor's selection, template and answers into a
// ready-to-open mail link.
package compose

import (
	"errors"
	"strings"

	"github.com/mpmail/internal/directory"
	"github.com/mpmail/internal/form"
	"github.com/mpmail/internal/mailto"
	"github.com/mpmail/internal/placeholder"
)

// DefaultSubject is the subject line used when none is configured.
const DefaultSubject = "Urgent Action Required for Palestine"

// ErrSelectionMissing is returned when no representative, or an unknown
// one, is selected.
var ErrSelectionMissing = errors.New("compose: no representative selected")

// SelectionPrompt is shown to the visitor for ErrSelectionMissing.
const SelectionPrompt = "Please select an MP."

// State is everything a compose request carries. Answers are keyed by the
// literal placeholder they fill.
type State struct {
	Email    string
	Template string
	Answers  map[string]string
}

// Message is a composed email.
type Message struct {
	To      string
	Subject string
	Body    string
	URI     string
}

type indexer interface {
	Index() (*directory.Index, error)
}

// Service composes messages against the loaded directory.
type Service struct {
	directory indexer
	subject   string
}

func NewService(dir indexer, subject string) *Service {
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}
	return &Service{directory: dir, subject: subject}
}

// Subject returns the fixed subject line.
func (s *Service) Subject() string {
	return s.subject
}

// Fields rebuilds the form for st.Template and fills it from st.Answers, so
// the field set always matches the template exactly.
func Fields(st State) []form.Field {
	return form.Fill(form.FromTemplate(st.Template), st.Answers)
}

// Compose validates st and renders the message. It fails with
// directory.ErrUnavailable, ErrSelectionMissing or a
// *placeholder.ValidationError; on failure no link is produced.
func (s *Service) Compose(st State) (Message, error) {
	idx, err := s.directory.Index()
	if err != nil {
		return Message{}, err
	}

	if strings.TrimSpace(st.Email) == "" {
		return Message{}, ErrSelectionMissing
	}
	rep, ok := idx.Lookup(st.Email)
	if !ok {
		return Message{}, ErrSelectionMissing
	}

	body, err := placeholder.Render(st.Template, rep.Record, form.Values(Fields(st)))
	if err != nil {
		return Message{}, err
	}

	to := rep.Email()
	return Message{
		To:      to,
		Subject: s.subject,
		Body:    body,
		URI:     mailto.Build(to, s.subject, body),
	}, nil
}

// Prompt returns the visitor-facing message for a compose error, or "" when
// err is not one the visitor can fix.
func Prompt(err error) string {
	var verr *placeholder.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Prompt()
	case errors.Is(err, ErrSelectionMissing):
		return SelectionPrompt
	default:
		return ""
	}
}
