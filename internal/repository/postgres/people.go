package postgres

import (
	"context"
	"strings"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

func (r *repositoryImpl) CreatePerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	q := `INSERT INTO people (display_name, email) VALUES ($1, $2) RETURNING id, display_name, email`
	var out domain.Person
	err := r.getQuerier(ctx).QueryRow(ctx, q, p.DisplayName, p.Email).Scan(&out.ID, &out.DisplayName, &out.Email)
	return out, r.handleError(err)
}

func (r *repositoryImpl) GetPersonByEmail(ctx context.Context, email string) (domain.Person, error) {
	q := `SELECT id, display_name, email FROM people WHERE lower(email) = lower($1)`
	var p domain.Person
	err := r.getQuerier(ctx).QueryRow(ctx, q, strings.TrimSpace(email)).Scan(&p.ID, &p.DisplayName, &p.Email)
	return p, r.handleError(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchPeople matches the prefix against display names and emails,
// ignoring case.
func (r *repositoryImpl) SearchPeople(ctx context.Context, prefix string, limit int) ([]domain.Person, error) {
	q := `
		SELECT id, display_name, email
		FROM people
		WHERE display_name ILIKE $1::text || '%' OR email ILIKE $1::text || '%'
		ORDER BY display_name, id
		LIMIT $2`
	rows, err := r.getQuerier(ctx).Query(ctx, q, likeEscaper.Replace(prefix), limit)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	people := []domain.Person{}
	for rows.Next() {
		var p domain.Person
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Email); err != nil {
			return nil, r.handleError(err)
		}
		people = append(people, p)
	}
	return people, r.handleError(rows.Err())
}
