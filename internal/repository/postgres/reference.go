package postgres

import (
	"context"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

const departmentSelect = `
	SELECT d.id, d.title, p.id, p.display_name, p.email
	FROM departments d
	LEFT JOIN people p ON p.id = d.change_authority_id`

func (r *repositoryImpl) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.getQuerier(ctx).Query(ctx, departmentSelect+` ORDER BY d.title`)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	depts := []domain.Department{}
	for rows.Next() {
		var d domain.Department
		var ca personCols
		if err := rows.Scan(append([]any{&d.ID, &d.Title}, ca.targets()...)...); err != nil {
			return nil, r.handleError(err)
		}
		d.ChangeAuthority = ca.person()
		depts = append(depts, d)
	}
	return depts, r.handleError(rows.Err())
}

func (r *repositoryImpl) GetDepartment(ctx context.Context, id int64) (domain.Department, error) {
	var d domain.Department
	var ca personCols
	err := r.getQuerier(ctx).QueryRow(ctx, departmentSelect+` WHERE d.id = $1`, id).
		Scan(append([]any{&d.ID, &d.Title}, ca.targets()...)...)
	if err != nil {
		return domain.Department{}, r.handleError(err)
	}
	d.ChangeAuthority = ca.person()
	return d, nil
}

func (r *repositoryImpl) ListLookup(ctx context.Context, list domain.LookupList) ([]domain.LookupItem, error) {
	q := `SELECT id, title FROM lookup_items WHERE list = $1 ORDER BY title`
	rows, err := r.getQuerier(ctx).Query(ctx, q, string(list))
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	items := []domain.LookupItem{}
	for rows.Next() {
		var it domain.LookupItem
		if err := rows.Scan(&it.ID, &it.Title); err != nil {
			return nil, r.handleError(err)
		}
		items = append(items, it)
	}
	return items, r.handleError(rows.Err())
}

func (r *repositoryImpl) ListDocumentSummaries(ctx context.Context) ([]domain.DocumentSummary, error) {
	q := `SELECT id, title FROM documents WHERE active ORDER BY title`
	rows, err := r.getQuerier(ctx).Query(ctx, q)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	docs := []domain.DocumentSummary{}
	for rows.Next() {
		var d domain.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Title); err != nil {
			return nil, r.handleError(err)
		}
		docs = append(docs, d)
	}
	return docs, r.handleError(rows.Err())
}

const documentSelect = `
	SELECT doc.id, doc.title, doc.description, doc.document_type, doc.classification,
	       au.id, au.title,
	       dep.id, dep.title,
	       ra.id, ra.display_name, ra.email,
	       a.id, a.display_name, a.email,
	       ca.id, ca.display_name, ca.email,
	       doc.file_ref, doc.published_date, doc.active
	FROM documents doc
	LEFT JOIN lookup_items au ON au.id = doc.audience_id
	LEFT JOIN departments dep ON dep.id = doc.department_id
	LEFT JOIN people ra ON ra.id = doc.release_authority_id
	LEFT JOIN people a ON a.id = doc.author_id
	LEFT JOIN people ca ON ca.id = doc.change_authority_id`

func scanDocument(row interface{ Scan(dest ...any) error }) (domain.Document, error) {
	var d domain.Document
	var audience, dept lookupCols
	var ra, author, ca personCols

	dest := []any{&d.ID, &d.Title, &d.Description, &d.DocumentType, &d.Classification}
	dest = append(dest, audience.targets()...)
	dest = append(dest, dept.targets()...)
	dest = append(dest, ra.targets()...)
	dest = append(dest, author.targets()...)
	dest = append(dest, ca.targets()...)
	dest = append(dest, &d.FileRef, &d.PublishedDate, &d.Active)

	if err := row.Scan(dest...); err != nil {
		return domain.Document{}, err
	}
	d.Audience = audience.item()
	d.CoreFunctionality = dept.item()
	d.ReleaseAuthority = ra.person()
	d.Author = author.person()
	d.ChangeAuthority = ca.person()
	d.BusinessFunctions = []domain.LookupItem{}
	d.Categories = []domain.LookupItem{}
	return d, nil
}

// ListDocuments returns the active documents with their collections.
func (r *repositoryImpl) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.getQuerier(ctx).Query(ctx, documentSelect+` WHERE doc.active ORDER BY doc.id`)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, r.handleError(err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handleError(err)
	}
	rows.Close()

	if err := r.loadDocumentCollections(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repositoryImpl) GetDocument(ctx context.Context, id int64) (domain.Document, error) {
	d, err := scanDocument(r.getQuerier(ctx).QueryRow(ctx, documentSelect+` WHERE doc.id = $1`, id))
	if err != nil {
		return domain.Document{}, r.handleError(err)
	}
	docs := []domain.Document{d}
	if err := r.loadDocumentCollections(ctx, docs); err != nil {
		return domain.Document{}, err
	}
	return docs[0], nil
}

func (r *repositoryImpl) loadDocumentCollections(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]int64, len(docs))
	index := make(map[int64]int, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		index[d.ID] = i
	}

	bf, err := r.lookupCollection(ctx, `
		SELECT j.document_id, li.id, li.title
		FROM document_business_functions j
		JOIN lookup_items li ON li.id = j.item_id
		WHERE j.document_id = ANY($1)
		ORDER BY li.title`, ids)
	if err != nil {
		return err
	}
	cats, err := r.lookupCollection(ctx, `
		SELECT j.document_id, li.id, li.title
		FROM document_categories j
		JOIN lookup_items li ON li.id = j.item_id
		WHERE j.document_id = ANY($1)
		ORDER BY li.title`, ids)
	if err != nil {
		return err
	}

	for owner, items := range bf {
		docs[index[owner]].BusinessFunctions = items
	}
	for owner, items := range cats {
		docs[index[owner]].Categories = items
	}
	return nil
}

// lookupCollection runs a query returning (owner id, item id, item title)
// rows and groups the items by owner.
func (r *repositoryImpl) lookupCollection(ctx context.Context, q string, ownerIDs []int64) (map[int64][]domain.LookupItem, error) {
	rows, err := r.getQuerier(ctx).Query(ctx, q, ownerIDs)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.LookupItem)
	for rows.Next() {
		var owner int64
		var it domain.LookupItem
		if err := rows.Scan(&owner, &it.ID, &it.Title); err != nil {
			return nil, r.handleError(err)
		}
		out[owner] = append(out[owner], it)
	}
	return out, r.handleError(rows.Err())
}

// personCollection is lookupCollection for people.
func (r *repositoryImpl) personCollection(ctx context.Context, q string, ownerIDs []int64) (map[int64][]domain.Person, error) {
	rows, err := r.getQuerier(ctx).Query(ctx, q, ownerIDs)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Person)
	for rows.Next() {
		var owner int64
		var p domain.Person
		if err := rows.Scan(&owner, &p.ID, &p.DisplayName, &p.Email); err != nil {
			return nil, r.handleError(err)
		}
		out[owner] = append(out[owner], p)
	}
	return out, r.handleError(rows.Err())
}
