package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

const changeRequestSelect = `
	SELECT cr.id, cr.number, cr.title, cr.scope_of_change, cr.status, cr.urgency, cr.classification,
	       cr.new_document, cr.target_document_id, cr.draft_document_name,
	       dep.id, dep.title,
	       dt.id, dt.title,
	       au.id, au.title,
	       ca.id, ca.display_name, ca.email,
	       ra.id, ra.display_name, ra.email,
	       a.id, a.display_name, a.email,
	       s.id, s.display_name, s.email,
	       cr.published_date, cr.created_at, cr.updated_at
	FROM change_requests cr
	LEFT JOIN departments dep ON dep.id = cr.department_id
	LEFT JOIN lookup_items dt ON dt.id = cr.document_type_id
	LEFT JOIN lookup_items au ON au.id = cr.audience_id
	LEFT JOIN people ca ON ca.id = cr.change_authority_id
	LEFT JOIN people ra ON ra.id = cr.release_authority_id
	LEFT JOIN people a ON a.id = cr.author_id
	LEFT JOIN people s ON s.id = cr.submitter_id`

func scanChangeRequest(row pgx.Row) (domain.ChangeRequest, error) {
	var cr domain.ChangeRequest
	var dept, docType, audience lookupCols
	var ca, ra, author, submitter personCols

	dest := []any{
		&cr.ID, &cr.Number, &cr.Title, &cr.ScopeOfChange, &cr.Status, &cr.Urgency, &cr.Classification,
		&cr.NewDocument, &cr.TargetDocumentID, &cr.DraftDocumentName,
	}
	dest = append(dest, dept.targets()...)
	dest = append(dest, docType.targets()...)
	dest = append(dest, audience.targets()...)
	dest = append(dest, ca.targets()...)
	dest = append(dest, ra.targets()...)
	dest = append(dest, author.targets()...)
	dest = append(dest, submitter.targets()...)
	dest = append(dest, &cr.PublishedDate, &cr.CreatedAt, &cr.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return domain.ChangeRequest{}, err
	}
	cr.Department = dept.item()
	cr.DocumentType = docType.item()
	cr.Audience = audience.item()
	cr.ChangeAuthority = ca.person()
	cr.ReleaseAuthority = ra.person()
	cr.Author = author.person()
	cr.Submitter = submitter.person()
	cr.BusinessFunctions = []domain.LookupItem{}
	cr.Categories = []domain.LookupItem{}
	cr.Reviewers = []domain.Person{}
	cr.Contributors = []domain.Person{}
	return cr, nil
}

// CreateChangeRequest inserts the record and its multi-valued fields and
// returns the stored row, number included.
func (r *repositoryImpl) CreateChangeRequest(ctx context.Context, p domain.ChangeRequestPayload) (domain.ChangeRequest, error) {
	var created domain.ChangeRequest
	err := r.RunInTx(ctx, func(ctx context.Context) error {
		q := `
			INSERT INTO change_requests (
				title, scope_of_change, status, urgency, classification, new_document,
				target_document_id, draft_document_name, department_id, document_type_id,
				audience_id, change_authority_id, release_authority_id, author_id, submitter_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id`
		var id int64
		err := r.getQuerier(ctx).QueryRow(ctx, q,
			p.Title, p.ScopeOfChange, p.Status, p.Urgency, p.Classification, p.NewDocument,
			nullID(p.TargetDocumentID), p.DraftDocumentName, nullID(p.CoreFunctionalityID), nullID(p.DocumentTypeID),
			nullID(p.AudienceID), nullID(p.ChangeAuthorityID), nullID(p.ReleaseAuthorityID), nullID(p.AuthorID), nullID(p.SubmitterID),
		).Scan(&id)
		if err != nil {
			return r.handleError(err)
		}

		b := &pgx.Batch{}
		queueJoin(b, "change_request_business_functions", "item_id", id, results(p.BusinessFunctionID))
		queueJoin(b, "change_request_categories", "item_id", id, results(p.CategoryID))
		queueJoin(b, "change_request_reviewers", "person_id", id, results(p.ReviewersID))
		queueJoin(b, "change_request_contributors", "person_id", id, results(p.ContributorsID))
		if err := r.execBatch(ctx, b); err != nil {
			return err
		}

		created, err = r.GetChangeRequest(ctx, id)
		return err
	})
	if err != nil {
		return domain.ChangeRequest{}, err
	}
	return created, nil
}

func results(m *domain.MultiValue) []int64 {
	if m == nil {
		return nil
	}
	return m.Results
}

func queueJoin(b *pgx.Batch, table, column string, changeRequestID int64, ids []int64) {
	q := fmt.Sprintf(`INSERT INTO %s (change_request_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, column)
	for _, id := range ids {
		b.Queue(q, changeRequestID, id)
	}
}

func (r *repositoryImpl) GetChangeRequest(ctx context.Context, id int64) (domain.ChangeRequest, error) {
	return r.getChangeRequest(ctx, id, false)
}

func (r *repositoryImpl) GetChangeRequestForUpdate(ctx context.Context, id int64) (domain.ChangeRequest, error) {
	return r.getChangeRequest(ctx, id, true)
}

func (r *repositoryImpl) getChangeRequest(ctx context.Context, id int64, forUpdate bool) (domain.ChangeRequest, error) {
	q := changeRequestSelect + ` WHERE cr.id = $1`
	if forUpdate {
		q += ` FOR UPDATE OF cr`
	}
	cr, err := scanChangeRequest(r.getQuerier(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return domain.ChangeRequest{}, r.handleError(err)
	}
	crs := []domain.ChangeRequest{cr}
	if err := r.loadChangeRequestCollections(ctx, crs); err != nil {
		return domain.ChangeRequest{}, err
	}
	return crs[0], nil
}

func (r *repositoryImpl) ListChangeRequests(ctx context.Context) ([]domain.ChangeRequest, error) {
	rows, err := r.getQuerier(ctx).Query(ctx, changeRequestSelect+` ORDER BY cr.id`)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	crs := []domain.ChangeRequest{}
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, r.handleError(err)
		}
		crs = append(crs, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handleError(err)
	}
	rows.Close()

	if err := r.loadChangeRequestCollections(ctx, crs); err != nil {
		return nil, err
	}
	return crs, nil
}

func (r *repositoryImpl) loadChangeRequestCollections(ctx context.Context, crs []domain.ChangeRequest) error {
	if len(crs) == 0 {
		return nil
	}
	ids := make([]int64, len(crs))
	index := make(map[int64]int, len(crs))
	for i, cr := range crs {
		ids[i] = cr.ID
		index[cr.ID] = i
	}

	lookupQuery := func(table string) string {
		return fmt.Sprintf(`
			SELECT j.change_request_id, li.id, li.title
			FROM %s j
			JOIN lookup_items li ON li.id = j.item_id
			WHERE j.change_request_id = ANY($1)
			ORDER BY li.title`, table)
	}
	personQuery := func(table string) string {
		return fmt.Sprintf(`
			SELECT j.change_request_id, p.id, p.display_name, p.email
			FROM %s j
			JOIN people p ON p.id = j.person_id
			WHERE j.change_request_id = ANY($1)
			ORDER BY p.display_name`, table)
	}

	bf, err := r.lookupCollection(ctx, lookupQuery("change_request_business_functions"), ids)
	if err != nil {
		return err
	}
	cats, err := r.lookupCollection(ctx, lookupQuery("change_request_categories"), ids)
	if err != nil {
		return err
	}
	reviewers, err := r.personCollection(ctx, personQuery("change_request_reviewers"), ids)
	if err != nil {
		return err
	}
	contributors, err := r.personCollection(ctx, personQuery("change_request_contributors"), ids)
	if err != nil {
		return err
	}

	for owner, items := range bf {
		crs[index[owner]].BusinessFunctions = items
	}
	for owner, items := range cats {
		crs[index[owner]].Categories = items
	}
	for owner, people := range reviewers {
		crs[index[owner]].Reviewers = people
	}
	for owner, people := range contributors {
		crs[index[owner]].Contributors = people
	}
	return nil
}

// UpdateChangeRequest applies the non-nil fields of the patch. Collections
// given in the patch replace the stored ones.
func (r *repositoryImpl) UpdateChangeRequest(ctx context.Context, id int64, patch domain.ChangeRequestPatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", strings.TrimSpace(*patch.Title))
	}
	if patch.ScopeOfChange != nil {
		set("scope_of_change", strings.TrimSpace(*patch.ScopeOfChange))
	}
	if patch.Status != nil {
		set("status", *patch.Status)
		if *patch.Status == domain.CRStatusPublished {
			sets = append(sets, "published_date = COALESCE(published_date, NOW())")
		}
	}
	if patch.Urgency != nil {
		set("urgency", *patch.Urgency)
	}
	if patch.Classification != nil {
		set("classification", *patch.Classification)
	}
	if patch.DraftDocumentName != nil {
		set("draft_document_name", strings.TrimSpace(*patch.DraftDocumentName))
	}
	if patch.DepartmentID != nil {
		set("department_id", nullID(patch.DepartmentID))
	}
	if patch.DocumentTypeID != nil {
		set("document_type_id", nullID(patch.DocumentTypeID))
	}
	if patch.AudienceID != nil {
		set("audience_id", nullID(patch.AudienceID))
	}
	if patch.ChangeAuthorityID != nil {
		set("change_authority_id", nullID(patch.ChangeAuthorityID))
	}
	if patch.ReleaseAuthorityID != nil {
		set("release_authority_id", nullID(patch.ReleaseAuthorityID))
	}
	if patch.AuthorID != nil {
		set("author_id", nullID(patch.AuthorID))
	}

	return r.RunInTx(ctx, func(ctx context.Context) error {
		args = append(args, id)
		q := fmt.Sprintf(`UPDATE change_requests SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
		tag, err := r.getQuerier(ctx).Exec(ctx, q, args...)
		if err != nil {
			return r.handleError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		b := &pgx.Batch{}
		replaceJoin(b, "change_request_business_functions", "item_id", id, patch.BusinessFunctionIDs)
		replaceJoin(b, "change_request_categories", "item_id", id, patch.CategoryIDs)
		replaceJoin(b, "change_request_reviewers", "person_id", id, patch.ReviewerIDs)
		replaceJoin(b, "change_request_contributors", "person_id", id, patch.ContributorIDs)
		return r.execBatch(ctx, b)
	})
}

func replaceJoin(b *pgx.Batch, table, column string, changeRequestID int64, ids *[]int64) {
	if ids == nil {
		return
	}
	b.Queue(fmt.Sprintf(`DELETE FROM %s WHERE change_request_id = $1`, table), changeRequestID)
	queueJoin(b, table, column, changeRequestID, *ids)
}
