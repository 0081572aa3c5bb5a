package domain

import "strings"

// Stage is a step of the two-part submission form.
type Stage string

const (
	StagePart1 Stage = "part1"
	StagePart2 Stage = "part2"
)

// Draft holds the state of a change request that has not been submitted
// yet. Both stages share it.
type Draft struct {
	// Part 1
	Title           string  `json:"title"`
	ScopeOfChange   string  `json:"scope_of_change"`
	DepartmentID    *int64  `json:"department_id"`
	NewDocument     bool    `json:"new_document"`
	ChangeAuthority *Person `json:"change_authority"`
	DocumentID      *int64  `json:"document_id"`

	// Part 2
	DocumentTypeID      *int64         `json:"document_type_id"`
	CategoryIDs         []int64        `json:"category_ids"`
	Classification      Classification `json:"classification"`
	AudienceID          *int64         `json:"audience_id"`
	BusinessFunctionIDs []int64        `json:"business_function_ids"`
	Urgency             Urgency        `json:"urgency"`
	ReleaseAuthority    *Person        `json:"release_authority"`
	Author              *Person        `json:"author"`
	ReviewerIDs         []int64        `json:"reviewer_ids"`
	ContributorIDs      []int64        `json:"contributor_ids"`
	DraftDocumentName   string         `json:"draft_document_name"`

	Stage Stage `json:"stage"`
}

func NewDraft() Draft {
	return Draft{
		CategoryIDs:         []int64{},
		BusinessFunctionIDs: []int64{},
		ReviewerIDs:         []int64{},
		ContributorIDs:      []int64{},
		Urgency:             UrgencyStandard,
		Stage:               StagePart1,
	}
}

func (d *Draft) Next() {
	d.Stage = StagePart2
}

func (d *Draft) Previous() {
	d.Stage = StagePart1
}

// GoTo switches to the given stage. Unknown stages are ignored.
func (d *Draft) GoTo(s Stage) {
	if s == StagePart1 || s == StagePart2 {
		d.Stage = s
	}
}

func isSet(id *int64) bool {
	return id != nil && *id > 0
}

// MissingPart1 lists the labels of the mandatory Part 1 fields that are
// still empty.
func (d *Draft) MissingPart1() []string {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "Title")
	}
	if strings.TrimSpace(d.ScopeOfChange) == "" {
		missing = append(missing, "Scope of Change")
	}
	if !isSet(d.DepartmentID) {
		missing = append(missing, "Department")
	}
	if !d.NewDocument && !isSet(d.DocumentID) {
		missing = append(missing, "Document")
	}
	return missing
}

func (d *Draft) Part1Valid() bool {
	return len(d.MissingPart1()) == 0
}

// Validate returns a ValidationError when the draft cannot be submitted and
// moves the draft to the stage holding the offending fields. Missing Part 1
// fields are reported before invalid Part 2 values.
func (d *Draft) Validate() error {
	if missing := d.MissingPart1(); len(missing) > 0 {
		d.Stage = StagePart1
		return &ValidationError{
			Message: "please fill in all required fields before submitting",
			Fields:  missing,
			Stage:   StagePart1,
		}
	}
	var bad []string
	if d.Urgency != "" && !d.Urgency.Valid() {
		bad = append(bad, "Urgency")
	}
	if d.Classification != "" && !d.Classification.Valid() {
		bad = append(bad, "Classification")
	}
	if len(bad) == 0 {
		return nil
	}
	d.Stage = StagePart2
	return &ValidationError{
		Message: "invalid field values",
		Fields:  bad,
		Stage:   StagePart2,
	}
}

// ExistingDocumentSelected reports whether Part 2 is backed by an existing
// document.
func (d *Draft) ExistingDocumentSelected() bool {
	return !d.NewDocument && isSet(d.DocumentID)
}

// SelectDepartment sets the department and always replaces the change
// authority with the department's configured one.
func (d *Draft) SelectDepartment(dept Department) {
	id := dept.ID
	d.DepartmentID = &id
	d.ChangeAuthority = clonePerson(dept.ChangeAuthority)
}

// SetNewDocument toggles the new-document flag. Switching to a new document
// detaches the draft from any previously selected document.
func (d *Draft) SetNewDocument(v bool) {
	d.NewDocument = v
	if !v {
		return
	}
	d.DocumentID = nil
	d.DepartmentID = nil
	d.ChangeAuthority = nil
	d.BusinessFunctionIDs = []int64{}
	d.CategoryIDs = []int64{}
	d.DocumentTypeID = nil
	d.Classification = ""
	d.AudienceID = nil
	d.ReleaseAuthority = nil
	d.Author = nil
	d.DraftDocumentName = ""
}

// ApplyDocument copies the document's metadata into the Part 2 fields. Title
// and scope of change are never touched.
func (d *Draft) ApplyDocument(doc Document, documentTypes []LookupItem) {
	d.DepartmentID = lookupID(doc.CoreFunctionality)
	d.ChangeAuthority = clonePerson(doc.ChangeAuthority)
	d.BusinessFunctionIDs = lookupIDs(doc.BusinessFunctions)
	d.CategoryIDs = lookupIDs(doc.Categories)
	d.DocumentTypeID = MatchDocumentType(doc.DocumentType, documentTypes)
	d.Classification = doc.Classification
	d.AudienceID = lookupID(doc.Audience)
	d.ReleaseAuthority = clonePerson(doc.ReleaseAuthority)
	d.Author = clonePerson(doc.Author)
	d.DraftDocumentName = doc.Title
}

// MatchDocumentType maps a free-text type name onto a known document type by
// case-insensitive title.
func MatchDocumentType(name string, types []LookupItem) *int64 {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, t := range types {
		if strings.EqualFold(t.Title, name) {
			id := t.ID
			return &id
		}
	}
	return nil
}

// MultiValue wraps the ids of a multi-valued lookup or person field.
type MultiValue struct {
	Results []int64 `json:"results"`
}

func multi(ids []int64) *MultiValue {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return &MultiValue{Results: out}
}

// ChangeRequestPayload is the field map written when a change request is
// created. Empty optional fields are omitted.
type ChangeRequestPayload struct {
	Title               string         `json:"Title"`
	ScopeOfChange       string         `json:"ScopeOfChange"`
	NewDocument         bool           `json:"NewDocument"`
	CoreFunctionalityID *int64         `json:"CoreFunctionalityId,omitempty"`
	ChangeAuthorityID   *int64         `json:"ChangeAuthorityId,omitempty"`
	TargetDocumentID    *int64         `json:"TargetDocumentId,omitempty"`
	Urgency             Urgency        `json:"Urgency"`
	Status              CRStatus       `json:"Status"`
	Classification      Classification `json:"Classification,omitempty"`
	AudienceID          *int64         `json:"AudienceId,omitempty"`
	DocumentTypeID      *int64         `json:"DocumentTypeId,omitempty"`
	DraftDocumentName   string         `json:"DraftDocumentName,omitempty"`
	ReleaseAuthorityID  *int64         `json:"ReleaseAuthorityId,omitempty"`
	AuthorID            *int64         `json:"AuthorId,omitempty"`
	SubmitterID         *int64         `json:"SubmitterId,omitempty"`
	ReviewersID         *MultiValue    `json:"ReviewersId,omitempty"`
	ContributorsID      *MultiValue    `json:"ContributorsId,omitempty"`
	BusinessFunctionID  *MultiValue    `json:"BusinessFunctionId,omitempty"`
	CategoryID          *MultiValue    `json:"CategoryId,omitempty"`
}

// Payload builds the creation payload. The status is always Submitted.
func (d *Draft) Payload() ChangeRequestPayload {
	urgency := d.Urgency
	if urgency == "" {
		urgency = UrgencyStandard
	}
	p := ChangeRequestPayload{
		Title:               strings.TrimSpace(d.Title),
		ScopeOfChange:       strings.TrimSpace(d.ScopeOfChange),
		NewDocument:         d.NewDocument,
		CoreFunctionalityID: positive(d.DepartmentID),
		ChangeAuthorityID:   personID(d.ChangeAuthority),
		Urgency:             urgency,
		Status:              CRStatusSubmitted,
		Classification:      d.Classification,
		AudienceID:          positive(d.AudienceID),
		DocumentTypeID:      positive(d.DocumentTypeID),
		DraftDocumentName:   strings.TrimSpace(d.DraftDocumentName),
		ReleaseAuthorityID:  personID(d.ReleaseAuthority),
		AuthorID:            personID(d.Author),
		ReviewersID:         multi(d.ReviewerIDs),
		ContributorsID:      multi(d.ContributorIDs),
		BusinessFunctionID:  multi(d.BusinessFunctionIDs),
		CategoryID:          multi(d.CategoryIDs),
	}
	if !d.NewDocument {
		p.TargetDocumentID = positive(d.DocumentID)
	}
	return p
}

func positive(id *int64) *int64 {
	if !isSet(id) {
		return nil
	}
	v := *id
	return &v
}

func personID(p *Person) *int64 {
	if p == nil || p.ID <= 0 {
		return nil
	}
	id := p.ID
	return &id
}

func clonePerson(p *Person) *Person {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func lookupID(l *LookupItem) *int64 {
	if l == nil {
		return nil
	}
	id := l.ID
	return &id
}

func lookupIDs(items []LookupItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
