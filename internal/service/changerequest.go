package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/repository"
	"github.com/FahmidKDAU/dcr-solution/internal/storage"
)

// Upload is one file attached to a submission.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProgressFunc is called once per file, before it is uploaded. current is
// 1-based.
type ProgressFunc func(current, total int, name string)

type SubmitResult struct {
	ID          int64               `json:"id"`
	Number      string              `json:"number"`
	Attachments []domain.Attachment `json:"attachments"`
}

func (s *Service) GetChangeRequests(ctx context.Context) ([]domain.ChangeRequest, error) {
	crs, err := s.repo.ListChangeRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing change requests: %w", err)
	}
	return crs, nil
}

func (s *Service) GetChangeRequestByID(ctx context.Context, id int64) (*domain.ChangeRequest, error) {
	cr, err := s.repo.GetChangeRequest(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting change request: %w", err)
	}
	return &cr, nil
}

func (s *Service) CreateChangeRequest(ctx context.Context, p domain.ChangeRequestPayload) (domain.ChangeRequest, error) {
	cr, err := s.repo.CreateChangeRequest(ctx, p)
	if err != nil {
		return domain.ChangeRequest{}, fmt.Errorf("creating change request: %w", err)
	}
	return cr, nil
}

// UpdateChangeRequest writes the patch as is. Concurrent edits of the same
// field resolve to the last write.
func (s *Service) UpdateChangeRequest(ctx context.Context, id int64, patch domain.ChangeRequestPatch) error {
	if err := s.repo.UpdateChangeRequest(ctx, id, patch); err != nil {
		return fmt.Errorf("updating change request: %w", err)
	}
	return nil
}

// Prefill populates the draft from the selected existing document. The draft
// comes back unchanged when there is nothing to apply.
func (s *Service) Prefill(ctx context.Context, draft domain.Draft) domain.Draft {
	if draft.NewDocument || draft.DocumentID == nil || *draft.DocumentID <= 0 {
		return draft
	}
	doc, _ := s.GetDocumentByID(ctx, *draft.DocumentID)
	if doc == nil {
		s.log.Warn("prefill skipped, document unavailable", "document_id", *draft.DocumentID)
		return draft
	}
	types, _ := s.GetDocumentTypes(ctx)
	draft.ApplyDocument(*doc, types)
	return draft
}

// Submit validates the draft, creates the change request and uploads the
// files. A validation failure sends nothing. The change authority always
// comes from the stored department, whatever the client sent.
func (s *Service) Submit(ctx context.Context, draft *domain.Draft, submitter *domain.Person, files []Upload, onProgress ProgressFunc) (SubmitResult, error) {
	if err := draft.Validate(); err != nil {
		submissionsTotal.WithLabelValues("invalid").Inc()
		return SubmitResult{}, err
	}
	if err := s.resolveDepartment(ctx, draft); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			submissionsTotal.WithLabelValues("invalid").Inc()
		} else {
			submissionsTotal.WithLabelValues(result(err)).Inc()
		}
		return SubmitResult{}, err
	}
	if draft.NewDocument {
		draft.DocumentID = nil
	}

	payload := draft.Payload()
	if submitter != nil && submitter.ID > 0 {
		id := submitter.ID
		payload.SubmitterID = &id
	}

	cr, err := s.CreateChangeRequest(ctx, payload)
	if err != nil {
		submissionsTotal.WithLabelValues(result(err)).Inc()
		return SubmitResult{}, err
	}
	res := SubmitResult{ID: cr.ID, Number: cr.Number, Attachments: []domain.Attachment{}}
	s.log.Info("change request submitted", "id", cr.ID, "number", cr.Number, "files", len(files))

	attachments, err := s.UploadAttachments(ctx, cr.ID, files, onProgress)
	submissionsTotal.WithLabelValues(result(err)).Inc()
	if err != nil {
		return res, fmt.Errorf("change request %s created, attachments failed: %w", cr.Number, err)
	}
	if attachments != nil {
		res.Attachments = attachments
	}
	return res, nil
}

func (s *Service) resolveDepartment(ctx context.Context, draft *domain.Draft) error {
	dept, err := s.repo.GetDepartment(ctx, *draft.DepartmentID)
	if errors.Is(err, domain.ErrNotFound) {
		draft.Stage = domain.StagePart1
		return &domain.ValidationError{
			Message: "selected department does not exist",
			Fields:  []string{"Department"},
			Stage:   domain.StagePart1,
		}
	}
	if err != nil {
		return fmt.Errorf("loading department: %w", err)
	}
	draft.SelectDepartment(dept)
	return nil
}

// UploadAttachments stores the files one after another against the change
// request, enabling attachments on the list first when needed.
func (s *Service) UploadAttachments(ctx context.Context, itemID int64, files []Upload, onProgress ProgressFunc) ([]domain.Attachment, error) {
	if itemID <= 0 {
		return nil, domain.ErrInvalidItemID
	}
	if len(files) == 0 {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, domain.ErrAttachmentsDisabled
	}

	enabled, err := s.repo.AttachmentsEnabled(ctx, repository.ChangeRequestList)
	if err != nil {
		return nil, fmt.Errorf("checking attachment setting: %w", err)
	}
	if !enabled {
		if err := s.repo.EnableAttachments(ctx, repository.ChangeRequestList); err != nil {
			return nil, fmt.Errorf("enabling attachments: %w", err)
		}
		s.log.Info("attachments enabled", "list", repository.ChangeRequestList)
	}

	out := make([]domain.Attachment, 0, len(files))
	for i, f := range files {
		if onProgress != nil {
			onProgress(i+1, len(files), f.Name)
		}
		a, err := s.uploadOne(ctx, itemID, f)
		if err != nil {
			return out, fmt.Errorf("uploading %q: %w", f.Name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) uploadOne(ctx context.Context, itemID int64, f Upload) (domain.Attachment, error) {
	key := storage.ObjectKey(itemID, f.Name)
	if err := s.blobs.Put(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
		return domain.Attachment{}, err
	}
	a, err := s.repo.CreateAttachment(ctx, domain.Attachment{
		ChangeRequestID: itemID,
		FileName:        f.Name,
		ObjectKey:       key,
		Size:            f.Size,
		ContentType:     f.ContentType,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.log.Error("orphaned attachment object", "key", key, "error", delErr)
		}
		return domain.Attachment{}, err
	}
	attachmentsUploaded.Inc()
	attachmentBytes.Add(float64(f.Size))
	return a, nil
}

func (s *Service) ListAttachments(ctx context.Context, changeRequestID int64) ([]domain.Attachment, error) {
	out, err := s.repo.ListAttachments(ctx, changeRequestID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	return out, nil
}

// OpenAttachment returns the attachment and a reader over its content. The
// caller closes the reader.
func (s *Service) OpenAttachment(ctx context.Context, changeRequestID, attachmentID int64) (domain.Attachment, io.ReadCloser, error) {
	if s.blobs == nil {
		return domain.Attachment{}, nil, domain.ErrAttachmentsDisabled
	}
	list, err := s.ListAttachments(ctx, changeRequestID)
	if err != nil {
		return domain.Attachment{}, nil, err
	}
	for _, a := range list {
		if a.ID != attachmentID {
			continue
		}
		rc, err := s.blobs.Get(ctx, a.ObjectKey)
		if err != nil {
			return domain.Attachment{}, nil, fmt.Errorf("reading attachment: %w", err)
		}
		return a, rc, nil
	}
	return domain.Attachment{}, nil, fmt.Errorf("attachment %d: %w", attachmentID, domain.ErrNotFound)
}

// CommitField saves a single edited field of a change request.
func (s *Service) CommitField(ctx context.Context, id int64, field string, value json.RawMessage) (domain.ChangeRequest, error) {
	patch, err := domain.FieldPatch(field, value)
	if err != nil {
		return domain.ChangeRequest{}, err
	}
	return s.PatchChangeRequest(ctx, id, patch)
}

// PatchChangeRequest applies all fields of the patch in one transaction.
// Status changes must be allowed by the change request lifecycle.
func (s *Service) PatchChangeRequest(ctx context.Context, id int64, patch domain.ChangeRequestPatch) (domain.ChangeRequest, error) {
	if patch.IsEmpty() {
		return domain.ChangeRequest{}, &domain.ValidationError{Message: "no fields to update"}
	}
	if err := patch.Validate(); err != nil {
		return domain.ChangeRequest{}, err
	}

	var updated domain.ChangeRequest
	err := s.inTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetChangeRequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.Status != nil {
			if err := s.changeReqs.Apply(current.Status, *patch.Status); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateChangeRequest(ctx, id, patch); err != nil {
			return err
		}
		updated, err = s.repo.GetChangeRequest(ctx, id)
		return err
	})
	if err != nil {
		return domain.ChangeRequest{}, err
	}
	return updated, nil
}
