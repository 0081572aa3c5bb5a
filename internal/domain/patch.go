package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ChangeRequestPatch is a partial change request update. Nil fields are left
// untouched. A zero id clears a single-valued reference and an empty slice
// clears a multi-valued one.
type ChangeRequestPatch struct {
	Title               *string         `json:"title,omitempty"`
	ScopeOfChange       *string         `json:"scope_of_change,omitempty"`
	Status              *CRStatus       `json:"status,omitempty"`
	Urgency             *Urgency        `json:"urgency,omitempty"`
	Classification      *Classification `json:"classification,omitempty"`
	DraftDocumentName   *string         `json:"draft_document_name,omitempty"`
	DepartmentID        *int64          `json:"department_id,omitempty"`
	DocumentTypeID      *int64          `json:"document_type_id,omitempty"`
	AudienceID          *int64          `json:"audience_id,omitempty"`
	ChangeAuthorityID   *int64          `json:"change_authority_id,omitempty"`
	ReleaseAuthorityID  *int64          `json:"release_authority_id,omitempty"`
	AuthorID            *int64          `json:"author_id,omitempty"`
	BusinessFunctionIDs *[]int64        `json:"business_function_ids,omitempty"`
	CategoryIDs         *[]int64        `json:"category_ids,omitempty"`
	ReviewerIDs         *[]int64        `json:"reviewer_ids,omitempty"`
	ContributorIDs      *[]int64        `json:"contributor_ids,omitempty"`
}

// PatchFields are the field names accepted by single-field commits.
var PatchFields = []string{
	"title", "scope_of_change", "status", "urgency", "classification",
	"draft_document_name", "department_id", "document_type_id", "audience_id",
	"change_authority_id", "release_authority_id", "author_id",
	"business_function_ids", "category_ids", "reviewer_ids", "contributor_ids",
}

// FieldPatch builds a patch that sets exactly one field from its JSON value.
func FieldPatch(field string, value json.RawMessage) (ChangeRequestPatch, error) {
	var p ChangeRequestPatch
	known := false
	for _, f := range PatchFields {
		if f == field {
			known = true
			break
		}
	}
	if !known {
		return p, &ValidationError{Message: "unknown field", Fields: []string{field}}
	}
	if len(bytes.TrimSpace(value)) == 0 || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return p, &ValidationError{Message: "value is required", Fields: []string{field}}
	}

	body, err := json.Marshal(map[string]json.RawMessage{field: value})
	if err != nil {
		return p, fmt.Errorf("encode field: %w", err)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, &ValidationError{Message: "invalid value", Fields: []string{field}}
	}
	return p, nil
}

func (p ChangeRequestPatch) IsEmpty() bool {
	return p == ChangeRequestPatch{}
}

// Validate checks enum values and that mandatory text fields are not blanked.
func (p ChangeRequestPatch) Validate() error {
	var bad []string
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		bad = append(bad, "title")
	}
	if p.ScopeOfChange != nil && strings.TrimSpace(*p.ScopeOfChange) == "" {
		bad = append(bad, "scope_of_change")
	}
	if p.Urgency != nil && !p.Urgency.Valid() {
		bad = append(bad, "urgency")
	}
	if p.Classification != nil && *p.Classification != "" && !p.Classification.Valid() {
		bad = append(bad, "classification")
	}
	if p.Status != nil && !p.Status.Valid() {
		bad = append(bad, "status")
	}
	if p.DepartmentID != nil && *p.DepartmentID <= 0 {
		bad = append(bad, "department_id")
	}
	if len(bad) == 0 {
		return nil
	}
	return &ValidationError{Message: "invalid field values", Fields: bad}
}

func (s CRStatus) Valid() bool {
	switch s {
	case CRStatusSubmitted, CRStatusCAReview, CRStatusApproved, CRStatusDocumentCreation,
		CRStatusDocumentReview, CRStatusPublished, CRStatusRejected:
		return true
	}
	return false
}
