package handler

import (
	"net/http"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CurrentUser(r.Context(), h.callerEmail(r)))
}

func (h *Handler) FormOptions(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "lookups"
	writeJSON(w, http.StatusOK, h.svc.FormOptions(r.Context(), refresh))
}

type peopleQuery struct {
	Search string `json:"search" validate:"max=100"`
}

func (h *Handler) SearchPeople(w http.ResponseWriter, r *http.Request) {
	q := peopleQuery{Search: r.URL.Query().Get("search")}
	if err := h.validate.Struct(q); err != nil {
		h.validationFailed(w, err)
		return
	}
	people, err := h.svc.SearchUsers(r.Context(), q.Search)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

type documentsQuery struct {
	Search string `json:"search" validate:"max=200"`
	Type   string `json:"type" validate:"max=100"`
	Sort   string `json:"sort" validate:"omitempty,oneof=title type published"`
	Order  string `json:"order" validate:"omitempty,oneof=asc desc"`
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := documentsQuery{
		Search: v.Get("search"),
		Type:   v.Get("type"),
		Sort:   v.Get("sort"),
		Order:  v.Get("order"),
	}
	if err := h.validate.Struct(q); err != nil {
		h.validationFailed(w, err)
		return
	}
	docs, err := h.svc.ListDocuments(r.Context(), domain.DocumentQuery{
		Search: q.Search,
		Type:   q.Type,
		Sort:   domain.DocumentSort(q.Sort),
		Desc:   q.Order == "desc",
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}
