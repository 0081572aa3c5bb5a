package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/service"
)

const (
	defaultUserHeader = "X-User-Email"
	defaultMaxUpload  = 25 << 20
)

type Options struct {
	// UserHeader carries the caller's email, set by the fronting proxy.
	UserHeader     string
	MaxUploadBytes int64
}

type Handler struct {
	svc        *service.Service
	log        *slog.Logger
	validate   *validator.Validate
	userHeader string
	maxUpload  int64
}

func New(svc *service.Service, log *slog.Logger, opts Options) *Handler {
	if opts.UserHeader == "" {
		opts.UserHeader = defaultUserHeader
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		svc:        svc,
		log:        log,
		validate:   v,
		userHeader: opts.UserHeader,
		maxUpload:  opts.MaxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadyCheck)
	r.Get("/me", h.Me)
	r.Get("/form/options", h.FormOptions)
	r.Get("/people", h.SearchPeople)
	r.Get("/documents", h.ListDocuments)

	r.Route("/changeRequests", func(r chi.Router) {
		r.Get("/", h.ListChangeRequests)
		r.Post("/", h.SubmitChangeRequest)
		r.Post("/prefill", h.Prefill)
		r.Get("/{id}", h.GetChangeRequest)
		r.Patch("/{id}", h.PatchChangeRequest)
		r.Patch("/{id}/fields/{field}", h.CommitField)
		r.Get("/{id}/attachments", h.ListAttachments)
		r.Get("/{id}/attachments/{attachmentID}", h.DownloadAttachment)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Get("/{id}", h.GetTask)
		r.Post("/{id}/actions", h.ActOnTask)
	})
}

type APIErrorResponse struct {
	Error APIErrorDetail `json:"error"`
}

type APIErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []string     `json:"fields,omitempty"`
	Stage   domain.Stage `json:"stage,omitempty"`
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIErrorResponse{Error: APIErrorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{Error: APIErrorDetail{
			Code:    "VALIDATION_FAILED",
			Message: verr.Message,
			Fields:  verr.Fields,
			Stage:   verr.Stage,
		}})
	case errors.Is(err, domain.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeAPIError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeAPIError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, domain.ErrActionNotAllowed):
		writeAPIError(w, http.StatusConflict, "ACTION_NOT_ALLOWED", err.Error())
	case errors.Is(err, domain.ErrUnknownTaskType):
		writeAPIError(w, http.StatusUnprocessableEntity, "UNKNOWN_TASK_TYPE", err.Error())
	case errors.Is(err, domain.ErrInvalidItemID):
		writeAPIError(w, http.StatusBadRequest, "INVALID_ITEM_ID", err.Error())
	case errors.Is(err, domain.ErrAttachmentsDisabled):
		writeAPIError(w, http.StatusServiceUnavailable, "ATTACHMENTS_DISABLED", err.Error())
	default:
		h.log.Error("internal server error", "error", err)
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// validationFailed reports validator tag failures using the JSON field names.
func (h *Handler) validationFailed(w http.ResponseWriter, err error) {
	var fields []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	writeJSON(w, http.StatusBadRequest, APIErrorResponse{Error: APIErrorDetail{
		Code:    "VALIDATION_FAILED",
		Message: "invalid request",
		Fields:  fields,
	}})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) callerEmail(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(h.userHeader))
}
