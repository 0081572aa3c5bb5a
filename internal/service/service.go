package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FahmidKDAU/dcr-solution/internal/repository"
	"github.com/FahmidKDAU/dcr-solution/internal/storage"
	"github.com/FahmidKDAU/dcr-solution/internal/workflow"
)

// SearchLimit caps people search results.
const SearchLimit = 10

type Service struct {
	repo       repository.Repository
	blobs      storage.Blobs
	log        *slog.Logger
	tasks      *workflow.TaskLifecycle
	changeReqs *workflow.ChangeRequestLifecycle
}

// New wires the service. blobs may be nil, in which case attachment uploads
// fail with ErrAttachmentsDisabled.
func New(repo repository.Repository, blobs storage.Blobs, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	tasks, err := workflow.NewTaskLifecycle()
	if err != nil {
		return nil, err
	}
	changeReqs, err := workflow.NewChangeRequestLifecycle()
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:       repo,
		blobs:      blobs,
		log:        log,
		tasks:      tasks,
		changeReqs: changeReqs,
	}, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txRepo, ok := s.repo.(repository.Transactor)
	if !ok {
		return errors.New("repository does not support transactions")
	}
	if err := txRepo.RunInTx(ctx, fn); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}

// Readiness reports the state of the service dependencies.
type Readiness struct {
	Database    string `json:"database"`
	Attachments string `json:"attachments"`
}

// Ready pings the database. Attachment storage being off is reported but does
// not make the service unready.
func (s *Service) Ready(ctx context.Context) (Readiness, error) {
	r := Readiness{Database: "up", Attachments: "enabled"}
	if s.blobs == nil {
		r.Attachments = "disabled"
	}
	p, ok := s.repo.(repository.Pinger)
	if !ok {
		r.Database = "unknown"
		return r, nil
	}
	if err := p.Ping(ctx); err != nil {
		r.Database = "down"
		return r, fmt.Errorf("database: %w", err)
	}
	return r, nil
}
