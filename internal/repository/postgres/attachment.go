package postgres

import (
	"context"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

func (r *repositoryImpl) AttachmentsEnabled(ctx context.Context, list string) (bool, error) {
	q := `SELECT enable_attachments FROM list_settings WHERE list = $1`
	var enabled bool
	err := r.getQuerier(ctx).QueryRow(ctx, q, list).Scan(&enabled)
	return enabled, r.handleError(err)
}

func (r *repositoryImpl) EnableAttachments(ctx context.Context, list string) error {
	q := `
		INSERT INTO list_settings (list, enable_attachments) VALUES ($1, TRUE)
		ON CONFLICT (list) DO UPDATE SET enable_attachments = TRUE`
	_, err := r.getQuerier(ctx).Exec(ctx, q, list)
	return r.handleError(err)
}

func (r *repositoryImpl) CreateAttachment(ctx context.Context, a domain.Attachment) (domain.Attachment, error) {
	q := `
		INSERT INTO attachments (change_request_id, file_name, object_key, size, content_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, uploaded_at`
	err := r.getQuerier(ctx).QueryRow(ctx, q, a.ChangeRequestID, a.FileName, a.ObjectKey, a.Size, a.ContentType).
		Scan(&a.ID, &a.UploadedAt)
	if err != nil {
		return domain.Attachment{}, r.handleError(err)
	}
	return a, nil
}

func (r *repositoryImpl) ListAttachments(ctx context.Context, changeRequestID int64) ([]domain.Attachment, error) {
	q := `
		SELECT id, change_request_id, file_name, object_key, size, content_type, uploaded_at
		FROM attachments
		WHERE change_request_id = $1
		ORDER BY id`
	rows, err := r.getQuerier(ctx).Query(ctx, q, changeRequestID)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	out := []domain.Attachment{}
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.ChangeRequestID, &a.FileName, &a.ObjectKey, &a.Size, &a.ContentType, &a.UploadedAt); err != nil {
			return nil, r.handleError(err)
		}
		out = append(out, a)
	}
	return out, r.handleError(rows.Err())
}
