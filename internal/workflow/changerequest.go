package workflow

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

const (
	crSubmitted        statekit.StateID = "submitted"
	crCAReview         statekit.StateID = "ca_review"
	crApproved         statekit.StateID = "approved"
	crDocumentCreation statekit.StateID = "document_creation"
	crDocumentReview   statekit.StateID = "document_review"
	crPublished        statekit.StateID = "published"
	crRejected         statekit.StateID = "rejected"
)

var crStates = map[domain.CRStatus]statekit.StateID{
	domain.CRStatusSubmitted:        crSubmitted,
	domain.CRStatusCAReview:         crCAReview,
	domain.CRStatusApproved:         crApproved,
	domain.CRStatusDocumentCreation: crDocumentCreation,
	domain.CRStatusDocumentReview:   crDocumentReview,
	domain.CRStatusPublished:        crPublished,
	domain.CRStatusRejected:         crRejected,
}

// ChangeRequestLifecycle walks a change request from submission to
// publication. Document review can send a draft back to document creation.
// Any state before publication can be rejected.
type ChangeRequestLifecycle struct {
	lc *lifecycle
}

func NewChangeRequestLifecycle() (*ChangeRequestLifecycle, error) {
	config, err := newChangeRequestMachine()
	if err != nil {
		return nil, fmt.Errorf("build change request machine: %w", err)
	}
	return &ChangeRequestLifecycle{lc: &lifecycle{
		id:     "change_request",
		config: config,
		terminal: map[statekit.StateID]bool{
			crPublished: true,
			crRejected:  true,
		},
	}}, nil
}

// Apply checks a status change. Setting the current status again is a no-op.
func (c *ChangeRequestLifecycle) Apply(from, to domain.CRStatus) error {
	f, ok := crStates[from]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, from)
	}
	s, ok := crStates[to]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, to)
	}
	if f == s {
		return nil
	}
	return c.lc.transition(f, s)
}

func (c *ChangeRequestLifecycle) IsFinal(s domain.CRStatus) bool {
	return c.lc.terminal[crStates[s]]
}

func newChangeRequestMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("change_request").
		WithInitial(crSubmitted).
		WithContext(&Context{}).
		WithAction("recordTransition", recordTransition).
		State(crSubmitted).
			On(eventTo(crCAReview)).Target(crCAReview).Do("recordTransition").
			On(eventTo(crRejected)).Target(crRejected).Do("recordTransition").
			Done().
		State(crCAReview).
			On(eventTo(crApproved)).Target(crApproved).Do("recordTransition").
			On(eventTo(crRejected)).Target(crRejected).Do("recordTransition").
			Done().
		State(crApproved).
			On(eventTo(crDocumentCreation)).Target(crDocumentCreation).Do("recordTransition").
			On(eventTo(crRejected)).Target(crRejected).Do("recordTransition").
			Done().
		State(crDocumentCreation).
			On(eventTo(crDocumentReview)).Target(crDocumentReview).Do("recordTransition").
			On(eventTo(crRejected)).Target(crRejected).Do("recordTransition").
			Done().
		State(crDocumentReview).
			On(eventTo(crPublished)).Target(crPublished).Do("recordTransition").
			On(eventTo(crDocumentCreation)).Target(crDocumentCreation).Do("recordTransition").
			On(eventTo(crRejected)).Target(crRejected).Do("recordTransition").
			Done().
		State(crPublished).Final().Done().
		State(crRejected).Final().Done().
		Build()
}
