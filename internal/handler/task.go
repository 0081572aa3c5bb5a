package handler

import (
	"encoding/json"
	"net/http"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/service"
)

type tasksQuery struct {
	Tab    string `json:"tab" validate:"omitempty,oneof=pending approved rejected complete all"`
	Type   string `json:"type" validate:"max=100"`
	Search string `json:"search" validate:"max=200"`
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := tasksQuery{Tab: v.Get("tab"), Type: v.Get("type"), Search: v.Get("search")}
	if err := h.validate.Struct(q); err != nil {
		h.validationFailed(w, err)
		return
	}
	hub := h.svc.ListTasks(r.Context(), h.callerEmail(r), domain.TaskFilter{
		Tab:      domain.TaskTab(q.Tab),
		TaskType: q.Type,
		Search:   q.Search,
	})
	writeJSON(w, http.StatusOK, hub)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return
	}
	detail, err := h.svc.TaskDetail(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type taskActionBody struct {
	Action          string `json:"action" validate:"required,oneof=approve reject reassign complete request_info"`
	Comment         string `json:"comment" validate:"max=4000"`
	RejectionReason string `json:"rejection_reason" validate:"max=4000"`
	InfoRequest     string `json:"info_request" validate:"max=4000"`
	DepartmentID    *int64 `json:"department_id" validate:"omitempty,gt=0"`
}

type actionResponse struct {
	service.ActionResult
	Selected *domain.Task `json:"selected"`
}

func (h *Handler) ActOnTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return
	}
	var body taskActionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		h.validationFailed(w, err)
		return
	}

	email := h.callerEmail(r)
	if email == "" {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing "+h.userHeader+" header")
		return
	}
	caller, err := h.svc.GetCurrentUser(r.Context(), email)
	if err != nil {
		h.handleError(w, err)
		return
	}

	res, err := h.svc.ActOnTask(r.Context(), caller.ID, id, service.TaskActionRequest{
		Action:          domain.TaskAction(body.Action),
		Comment:         body.Comment,
		RejectionReason: body.RejectionReason,
		InfoRequest:     body.InfoRequest,
		DepartmentID:    body.DepartmentID,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{ActionResult: res})
}
