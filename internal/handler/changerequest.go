package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/service"
)

type submitResponse struct {
	service.SubmitResult
	// Draft is the fresh form state to continue with.
	Draft domain.Draft `json:"draft"`
}

func (h *Handler) ListChangeRequests(w http.ResponseWriter, r *http.Request) {
	crs, err := h.svc.GetChangeRequests(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"change_requests": crs})
}

func (h *Handler) GetChangeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return
	}
	cr, err := h.svc.GetChangeRequestByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if cr == nil {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "change request not found")
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

// SubmitChangeRequest accepts either a JSON draft or a multipart form with a
// "draft" JSON part and any number of "files" parts.
func (h *Handler) SubmitChangeRequest(w http.ResponseWriter, r *http.Request) {
	var (
		draft domain.Draft
		files []service.Upload
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeAPIError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "upload exceeds the size limit")
				return
			}
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart body")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		if err := json.Unmarshal([]byte(r.FormValue("draft")), &draft); err != nil {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid draft json")
			return
		}
		opened, closeAll, err := openUploads(r.MultipartForm.File["files"])
		defer closeAll()
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		files = opened
	} else if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}

	var submitter *domain.Person
	if email := h.callerEmail(r); email != "" {
		p, err := h.svc.GetCurrentUser(r.Context(), email)
		if err != nil {
			h.log.Warn("submitter not resolved", "email", email, "error", err)
		} else {
			submitter = &p
		}
	}

	progress := func(current, total int, name string) {
		h.log.Info("uploading attachment", "current", current, "total", total, "file", name)
	}
	res, err := h.svc.Submit(r.Context(), &draft, submitter, files, progress)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": APIErrorDetail{
					Code:    "VALIDATION_FAILED",
					Message: verr.Message,
					Fields:  verr.Fields,
					Stage:   verr.Stage,
				},
				"draft": draft,
			})
			return
		}
		if res.ID > 0 {
			h.writePartialSubmit(w, res, draft, err)
			return
		}
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{SubmitResult: res, Draft: domain.NewDraft()})
}

// writePartialSubmit reports a change request that was created but whose
// attachments did not all upload. The client keeps its draft.
func (h *Handler) writePartialSubmit(w http.ResponseWriter, res service.SubmitResult, draft domain.Draft, err error) {
	h.log.Error("attachments failed after create", "id", res.ID, "number", res.Number, "error", err)
	status, code := http.StatusBadGateway, "ATTACHMENT_UPLOAD_FAILED"
	if errors.Is(err, domain.ErrAttachmentsDisabled) {
		status, code = http.StatusServiceUnavailable, "ATTACHMENTS_DISABLED"
	}
	writeJSON(w, status, map[string]any{
		"error":       APIErrorDetail{Code: code, Message: err.Error()},
		"id":          res.ID,
		"number":      res.Number,
		"attachments": res.Attachments,
		"draft":       draft,
	})
}

func openUploads(headers []*multipart.FileHeader) ([]service.Upload, func(), error) {
	var closers []multipart.File
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	out := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("cannot read file %q", fh.Filename)
		}
		closers = append(closers, f)
		out = append(out, service.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return out, closeAll, nil
}

type prefillResponse struct {
	Draft                    domain.Draft `json:"draft"`
	ExistingDocumentSelected bool         `json:"existing_document_selected"`
}

func (h *Handler) Prefill(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	draft = h.svc.Prefill(r.Context(), draft)
	writeJSON(w, http.StatusOK, prefillResponse{
		Draft:                    draft,
		ExistingDocumentSelected: draft.ExistingDocumentSelected(),
	})
}

func (h *Handler) PatchChangeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var patch domain.ChangeRequestPatch
	if err := dec.Decode(&patch); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	cr, err := h.svc.PatchChangeRequest(r.Context(), id, patch)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

type fieldResult struct {
	Field string `json:"field"`
	Saved bool   `json:"saved"`
	Error string `json:"error,omitempty"`
}

// CommitField saves one field. The body is {"value": <json>}.
func (h *Handler) CommitField(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, fieldResult{Field: field, Error: "invalid id"})
		return
	}
	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, fieldResult{Field: field, Error: "invalid json"})
		return
	}
	if _, err := h.svc.CommitField(r.Context(), id, field, body.Value); err != nil {
		status := h.fieldErrorStatus(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
		writeJSON(w, status, fieldResult{Field: field, Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, fieldResult{Field: field, Saved: true})
}

func (h *Handler) fieldErrorStatus(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		h.log.Error("field commit failed", "error", err)
		return http.StatusInternalServerError
	}
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return
	}
	out, err := h.svc.ListAttachments(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attachments": out})
}

func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	attID, err := strconv.ParseInt(chi.URLParam(r, "attachmentID"), 10, 64)
	if !ok || err != nil || attID <= 0 {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return
	}
	a, body, err := h.svc.OpenAttachment(r.Context(), id, attID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	defer body.Close()

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
	if a.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("attachment download interrupted", "attachment_id", attID, "error", err)
	}
}
