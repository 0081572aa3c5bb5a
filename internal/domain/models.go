package domain

import "time"

type Person struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type LookupList string

const (
	LookupDocumentTypes     LookupList = "document_types"
	LookupCategories        LookupList = "categories"
	LookupAudienceGroups    LookupList = "audience_groups"
	LookupBusinessFunctions LookupList = "business_functions"
)

type LookupItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type Department struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	ChangeAuthority *Person `json:"change_authority"`
}

type Classification string

const (
	ClassificationPublic       Classification = "Public"
	ClassificationInternal     Classification = "Internal"
	ClassificationConfidential Classification = "Confidential"
	ClassificationRestricted   Classification = "Restricted"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationPublic, ClassificationInternal, ClassificationConfidential, ClassificationRestricted:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyStandard Urgency = "Standard"
	UrgencyUrgent   Urgency = "Urgent"
	UrgencyMinor    Urgency = "Minor"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyStandard, UrgencyUrgent, UrgencyMinor:
		return true
	}
	return false
}

type DocumentSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Document is a published document. It is the read-only source used to
// prefill a change request against an existing document.
type Document struct {
	ID                int64          `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	DocumentType      string         `json:"document_type,omitempty"`
	Classification    Classification `json:"classification,omitempty"`
	Audience          *LookupItem    `json:"audience,omitempty"`
	CoreFunctionality *LookupItem    `json:"core_functionality,omitempty"`
	BusinessFunctions []LookupItem   `json:"business_functions"`
	Categories        []LookupItem   `json:"categories"`
	ReleaseAuthority  *Person        `json:"release_authority,omitempty"`
	Author            *Person        `json:"author,omitempty"`
	ChangeAuthority   *Person        `json:"change_authority,omitempty"`
	FileRef           string         `json:"file_ref,omitempty"`
	PublishedDate     *time.Time     `json:"published_date,omitempty"`
	Active            bool           `json:"active"`
}

type CRStatus string

const (
	CRStatusSubmitted        CRStatus = "Submitted"
	CRStatusCAReview         CRStatus = "CA Review"
	CRStatusApproved         CRStatus = "Approved"
	CRStatusDocumentCreation CRStatus = "Document Creation"
	CRStatusDocumentReview   CRStatus = "Document Review"
	CRStatusPublished        CRStatus = "Published"
	CRStatusRejected         CRStatus = "Rejected"
)

type ChangeRequest struct {
	ID                int64          `json:"id"`
	Number            string         `json:"number"`
	Title             string         `json:"title"`
	ScopeOfChange     string         `json:"scope_of_change"`
	Status            CRStatus       `json:"status"`
	Urgency           Urgency        `json:"urgency"`
	Classification    Classification `json:"classification,omitempty"`
	NewDocument       bool           `json:"new_document"`
	TargetDocumentID  *int64         `json:"target_document_id,omitempty"`
	DraftDocumentName string         `json:"draft_document_name,omitempty"`
	Department        *LookupItem    `json:"department,omitempty"`
	DocumentType      *LookupItem    `json:"document_type,omitempty"`
	Audience          *LookupItem    `json:"audience,omitempty"`
	BusinessFunctions []LookupItem   `json:"business_functions"`
	Categories        []LookupItem   `json:"categories"`
	ChangeAuthority   *Person        `json:"change_authority,omitempty"`
	ReleaseAuthority  *Person        `json:"release_authority,omitempty"`
	Author            *Person        `json:"author,omitempty"`
	Submitter         *Person        `json:"submitter,omitempty"`
	Reviewers         []Person       `json:"reviewers"`
	Contributors      []Person       `json:"contributors"`
	PublishedDate     *time.Time     `json:"published_date,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type TaskType string

const (
	TaskTypeCAReview                 TaskType = "CA Review"
	TaskTypeDocumentReview           TaskType = "Document Review"
	TaskTypeFinalApproval            TaskType = "Final Approval"
	TaskTypeCRCompletion             TaskType = "CR Completion"
	TaskTypeCRInfoRequired           TaskType = "CR Info Required"
	TaskTypeChangeAuthorityApproval  TaskType = "Change Authority Approval"
	TaskTypeChangeAuthorityReview    TaskType = "Change Authority Review"
	TaskTypeDocumentControllerReview TaskType = "Document Controller Review"
)

type TaskStatus string

const (
	TaskStatusNew                 TaskStatus = "New"
	TaskStatusPending             TaskStatus = "Pending"
	TaskStatusInProgress          TaskStatus = "In Progress"
	TaskStatusOnHold              TaskStatus = "On Hold"
	TaskStatusNeedsMoreInfo       TaskStatus = "Needs more info"
	TaskStatusReassigned          TaskStatus = "Reassigned"
	TaskStatusApproved            TaskStatus = "Approved"
	TaskStatusRejected            TaskStatus = "Rejected"
	TaskStatusComplete            TaskStatus = "Complete"
	TaskStatusCancelled           TaskStatus = "Cancelled"
	TaskStatusMarkedMinorChange   TaskStatus = "Marked as Minor Change"
	TaskStatusMarkedForObsoletion TaskStatus = "Marked for Document Obsoletion"
)

type Task struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	TaskType        TaskType   `json:"task_type"`
	Status          TaskStatus `json:"status"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	AssignedTo      *Person    `json:"assigned_to,omitempty"`
	Requestor       *Person    `json:"requestor,omitempty"`
	ChangeRequestID int64      `json:"change_request_id"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Comment         string     `json:"comment,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Status          *TaskStatus
	AssignedToID    *int64
	RejectionReason *string
	Comment         *string
}

type Attachment struct {
	ID              int64     `json:"id"`
	ChangeRequestID int64     `json:"change_request_id"`
	FileName        string    `json:"file_name"`
	ObjectKey       string    `json:"-"`
	Size            int64     `json:"size"`
	ContentType     string    `json:"content_type,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at"`
}
