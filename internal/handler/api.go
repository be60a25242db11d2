package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mpmail/internal/compose"
	"github.com/mpmail/internal/directory"
	"github.com/mpmail/internal/form"
	"github.com/mpmail/internal/placeholder"
)

// APIHandler exposes the compose pipeline as JSON.
type APIHandler struct {
	BaseHandler
	directory indexer
	service   *compose.Service
}

func NewAPIHandler(logger *slog.Logger, dir indexer, svc *compose.Service) *APIHandler {
	return &APIHandler{BaseHandler: BaseHandler{Logger: logger}, directory: dir, service: svc}
}

type representativeResponse struct {
	Email      string `json:"email"`
	Label      string `json:"label"`
	Name       string `json:"name"`
	Electorate string `json:"electorate"`
	Party      string `json:"party"`
}

// Representatives lists the eligible representatives in presentation order.
func (h *APIHandler) Representatives(w http.ResponseWriter, r *http.Request) {
	idx, err := h.directory.Index()
	if err != nil {
		h.unavailableResponse(w, r)
		return
	}

	reps := make([]representativeResponse, 0, idx.Len())
	for _, rep := range idx.All() {
		reps = append(reps, representativeResponse{
			Email:      rep.Email(),
			Label:      rep.Label,
			Name:       rep.Record.Name(),
			Electorate: rep.Record.Electorate(),
			Party:      rep.Record.Party(),
		})
	}

	if err := h.writeJSON(w, http.StatusOK, envelope{"representatives": reps}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Fields returns the question fields and attribute names of a template.
func (h *APIHandler) Fields(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Template string            `json:"template"`
		Answers  map[string]string `json:"answers"`
	}
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	fields := form.Fill(form.FromTemplate(req.Template), req.Answers)
	env := envelope{
		"fields":     fields,
		"attributes": placeholder.Attributes(req.Template),
	}
	if err := h.writeJSON(w, http.StatusOK, env, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Compose renders the message and returns its mailto link.
func (h *APIHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string            `json:"email"`
		Template string            `json:"template"`
		Answers  map[string]string `json:"answers"`
	}
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	msg, err := h.service.Compose(compose.State{Email: req.Email, Template: req.Template, Answers: req.Answers})
	if err != nil {
		var verr *placeholder.ValidationError
		switch {
		case errors.Is(err, directory.ErrUnavailable):
			h.unavailableResponse(w, r)
		case errors.As(err, &verr):
			h.errorResponseWith(w, r, http.StatusUnprocessableEntity, envelope{"error": verr.Prompt(), "field": verr.Label})
		case errors.Is(err, compose.ErrSelectionMissing):
			h.errorResponse(w, r, http.StatusUnprocessableEntity, compose.SelectionPrompt)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}

	env := envelope{
		"mailto":  msg.URI,
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}
	if err := h.writeJSON(w, http.StatusOK, env, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
