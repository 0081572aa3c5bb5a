package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/loader"
)

const minSearchRunes = 2

func (s *Service) GetDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	return depts, nil
}

func (s *Service) GetDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	docs, err := s.repo.ListDocumentSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// GetDocumentByID never fails: a missing document and a lookup error both
// yield nil.
func (s *Service) GetDocumentByID(ctx context.Context, id int64) (*domain.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("get document failed", "document_id", id, "error", err)
		}
		return nil, nil
	}
	return &doc, nil
}

// ListDocuments backs the document portal.
func (s *Service) ListDocuments(ctx context.Context, q domain.DocumentQuery) ([]domain.Document, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return q.Apply(docs), nil
}

func (s *Service) GetDocumentTypes(ctx context.Context) ([]domain.LookupItem, error) {
	return s.lookup(ctx, domain.LookupDocumentTypes), nil
}

func (s *Service) GetCategories(ctx context.Context) ([]domain.LookupItem, error) {
	return s.lookup(ctx, domain.LookupCategories), nil
}

func (s *Service) GetAudienceGroups(ctx context.Context) ([]domain.LookupItem, error) {
	return s.lookup(ctx, domain.LookupAudienceGroups), nil
}

func (s *Service) GetBusinessFunctions(ctx context.Context) ([]domain.LookupItem, error) {
	return s.lookup(ctx, domain.LookupBusinessFunctions), nil
}

func (s *Service) lookup(ctx context.Context, list domain.LookupList) []domain.LookupItem {
	items, err := s.repo.ListLookup(ctx, list)
	if err != nil {
		s.log.Error("lookup list failed", "list", list, "error", err)
		return []domain.LookupItem{}
	}
	if items == nil {
		return []domain.LookupItem{}
	}
	return items
}

// GetCurrentUser resolves the caller from the identity header value.
func (s *Service) GetCurrentUser(ctx context.Context, email string) (domain.Person, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Person{}, fmt.Errorf("current user: %w", domain.ErrNotFound)
	}
	p, err := s.repo.GetPersonByEmail(ctx, email)
	if err != nil {
		return domain.Person{}, fmt.Errorf("current user: %w", err)
	}
	return p, nil
}

func (s *Service) SearchUsers(ctx context.Context, text string) ([]domain.Person, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minSearchRunes {
		return []domain.Person{}, nil
	}
	people, err := s.repo.SearchPeople(ctx, text, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching people: %w", err)
	}
	if people == nil {
		return []domain.Person{}, nil
	}
	return people, nil
}

type Lookups struct {
	DocumentTypes     []domain.LookupItem `json:"document_types"`
	Categories        []domain.LookupItem `json:"categories"`
	AudienceGroups    []domain.LookupItem `json:"audience_groups"`
	BusinessFunctions []domain.LookupItem `json:"business_functions"`
}

// FormOptions is everything the change-request form needs to render. Each
// section loads and fails on its own.
type FormOptions struct {
	Departments loader.Snapshot[[]domain.Department]      `json:"departments"`
	Documents   loader.Snapshot[[]domain.DocumentSummary] `json:"documents"`
	Lookups     loader.Snapshot[Lookups]                  `json:"lookups"`
}

func (s *Service) FormOptions(ctx context.Context, refreshLookups bool) FormOptions {
	depts := loader.New("departments", "Failed to load departments", s.GetDepartments, s.log)
	docs := loader.New("documents", "Failed to load documents", s.GetDocuments, s.log)
	lookups := loader.New("lookups", "Failed to load lookup data", s.fetchLookups, s.log)

	var (
		out FormOptions
		wg  sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		out.Departments = depts.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		out.Documents = docs.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		if refreshLookups {
			out.Lookups = lookups.Refresh(ctx)
			return
		}
		out.Lookups = lookups.Load(ctx)
	}()
	wg.Wait()
	return out
}

func (s *Service) fetchLookups(ctx context.Context) (Lookups, error) {
	var l Lookups
	l.DocumentTypes, _ = s.GetDocumentTypes(ctx)
	l.Categories, _ = s.GetCategories(ctx)
	l.AudienceGroups, _ = s.GetAudienceGroups(ctx)
	l.BusinessFunctions, _ = s.GetBusinessFunctions(ctx)
	return l, nil
}

// CurrentUser loads the caller for GET /me.
func (s *Service) CurrentUser(ctx context.Context, email string) loader.Snapshot[*domain.Person] {
	l := loader.New("current_user", "Failed to load current user", func(ctx context.Context) (*domain.Person, error) {
		p, err := s.GetCurrentUser(ctx, email)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}, s.log)
	return l.Load(ctx)
}
