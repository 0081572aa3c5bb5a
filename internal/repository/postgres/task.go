package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

const taskSelect = `
	SELECT t.id, t.title, t.task_type, t.status, t.due_date,
	       ap.id, ap.display_name, ap.email,
	       rp.id, rp.display_name, rp.email,
	       t.change_request_id, t.rejection_reason, t.comment, t.created_at
	FROM tasks t
	LEFT JOIN people ap ON ap.id = t.assigned_to_id
	LEFT JOIN people rp ON rp.id = t.requestor_id`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	var assigned, requestor personCols

	dest := []any{&t.ID, &t.Title, &t.TaskType, &t.Status, &t.DueDate}
	dest = append(dest, assigned.targets()...)
	dest = append(dest, requestor.targets()...)
	dest = append(dest, &t.ChangeRequestID, &t.RejectionReason, &t.Comment, &t.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		return domain.Task{}, err
	}
	t.AssignedTo = assigned.person()
	t.Requestor = requestor.person()
	return t, nil
}

func personRef(p *domain.Person) any {
	if p == nil {
		return nil
	}
	return nullID(&p.ID)
}

// CreateTask is used by seeds and tests; tasks are normally created by the
// external approval flow.
func (r *repositoryImpl) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	status := t.Status
	if status == "" {
		status = domain.TaskStatusNew
	}
	q := `
		INSERT INTO tasks (title, task_type, status, due_date, assigned_to_id, requestor_id, change_request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := r.getQuerier(ctx).QueryRow(ctx, q,
		t.Title, t.TaskType, status, t.DueDate, personRef(t.AssignedTo), personRef(t.Requestor), t.ChangeRequestID,
	).Scan(&id)
	if err != nil {
		return domain.Task{}, r.handleError(err)
	}
	return r.GetTask(ctx, id)
}

func (r *repositoryImpl) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	t, err := scanTask(r.getQuerier(ctx).QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	return t, r.handleError(err)
}

func (r *repositoryImpl) GetTaskForUpdate(ctx context.Context, id int64) (domain.Task, error) {
	t, err := scanTask(r.getQuerier(ctx).QueryRow(ctx, taskSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id))
	return t, r.handleError(err)
}

func (r *repositoryImpl) ListTasksByAssignee(ctx context.Context, personID int64) ([]domain.Task, error) {
	q := taskSelect + ` WHERE t.assigned_to_id = $1 ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.getQuerier(ctx).Query(ctx, q, personID)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, r.handleError(err)
		}
		tasks = append(tasks, t)
	}
	return tasks, r.handleError(rows.Err())
}

func (r *repositoryImpl) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) error {
	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.AssignedToID != nil {
		set("assigned_to_id", nullID(patch.AssignedToID))
	}
	if patch.RejectionReason != nil {
		set("rejection_reason", *patch.RejectionReason)
	}
	if patch.Comment != nil {
		set("comment", *patch.Comment)
	}
	if len(sets) == 0 {
		_, err := r.GetTask(ctx, id)
		return err
	}

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := r.getQuerier(ctx).Exec(ctx, q, args...)
	if err != nil {
		return r.handleError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
