package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/mpmail/internal/compose"
	"github.com/mpmail/internal/directory"
	"github.com/mpmail/internal/form"
)

type indexer interface {
	Index() (*directory.Index, error)
}

// composeForm is the page form as posted by the browser.
type composeForm struct {
	Email    string        `schema:"mp"`
	Template string        `schema:"template"`
	Answers  []answerInput `schema:"answers"`
}

type answerInput struct {
	Placeholder string `schema:"placeholder"`
	Value       string `schema:"value"`
}

func (f composeForm) state() compose.State {
	answers := make(map[string]string, len(f.Answers))
	for _, a := range f.Answers {
		if a.Placeholder != "" {
			answers[a.Placeholder] = a.Value
		}
	}
	return compose.State{Email: f.Email, Template: f.Template, Answers: answers}
}

type pageData struct {
	Available       bool
	Representatives []directory.Representative
	Selected        string
	Template        string
	Fields          []form.Field
	Subject         string
	Prompt          string
}

// ComposeHandler serves the compose page and turns its submissions into
// mailto navigations.
type ComposeHandler struct {
	BaseHandler
	directory       indexer
	service         *compose.Service
	templates       *template.Template
	decoder         *schema.Decoder
	defaultTemplate string
	preserveAnswers bool
}

func NewComposeHandler(logger *slog.Logger, dir indexer, svc *compose.Service, tmpl *template.Template, defaultTemplate string, preserveAnswers bool) *ComposeHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &ComposeHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		directory:       dir,
		service:         svc,
		templates:       tmpl,
		decoder:         decoder,
		defaultTemplate: defaultTemplate,
		preserveAnswers: preserveAnswers,
	}
}

// Page renders the compose page with the default template.
func (h *ComposeHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.page(h.defaultTemplate, "", form.FromTemplate(h.defaultTemplate)))
}

// Fields rebuilds the question fields for the posted template. Requests
// sent with the X-Partial header get only the fields fragment.
func (h *ComposeHandler) Fields(w http.ResponseWriter, r *http.Request) {
	f, err := h.decode(r)
	if err != nil {
		h.Logger.Warn("compose: form decode failed", "err", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	fields := form.FromTemplate(f.Template)
	if h.preserveAnswers {
		fields = form.Fill(fields, f.state().Answers)
	}

	if r.Header.Get("X-Partial") == "fields" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.templates.ExecuteTemplate(w, "fields", fields); err != nil {
			h.Logger.Error("compose: template error", "err", err)
		}
		return
	}
	h.render(w, r, http.StatusOK, h.page(f.Template, f.Email, fields))
}

// Compose validates the submission and redirects the browser to the mailto
// link. Problems the visitor can fix re-render the page with a prompt.
func (h *ComposeHandler) Compose(w http.ResponseWriter, r *http.Request) {
	f, err := h.decode(r)
	if err != nil {
		h.Logger.Warn("compose: form decode failed", "err", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	st := f.state()
	msg, err := h.service.Compose(st)
	if err != nil {
		data := h.page(st.Template, st.Email, compose.Fields(st))
		switch {
		case errors.Is(err, directory.ErrUnavailable):
			data.Prompt = "The MP list is unavailable right now. Please try again later."
			h.render(w, r, http.StatusServiceUnavailable, data)
		case compose.Prompt(err) != "":
			h.Logger.Debug("compose: rejected", "err", err)
			data.Prompt = compose.Prompt(err)
			h.render(w, r, http.StatusUnprocessableEntity, data)
		default:
			h.logError(r, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	h.Logger.Info("compose: message generated", "to", msg.To, "fields", len(st.Answers))
	http.Redirect(w, r, msg.URI, http.StatusSeeOther)
}

func (h *ComposeHandler) decode(r *http.Request) (composeForm, error) {
	var f composeForm
	if err := r.ParseForm(); err != nil {
		return f, err
	}
	if err := h.decoder.Decode(&f, r.PostForm); err != nil {
		return f, err
	}
	return f, nil
}

func (h *ComposeHandler) page(tmpl, selected string, fields []form.Field) pageData {
	data := pageData{
		Selected: selected,
		Template: tmpl,
		Fields:   fields,
		Subject:  h.service.Subject(),
	}
	if idx, err := h.directory.Index(); err == nil {
		data.Available = true
		data.Representatives = idx.All()
	}
	return data
}

func (h *ComposeHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.Logger.Error("compose: template error", "err", err, "uri", r.URL.RequestURI())
	}
}
