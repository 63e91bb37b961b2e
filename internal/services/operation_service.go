// Package services orchestrates writes that span storage and messaging.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"comptes/internal/amqp"
	"comptes/internal/core"
)

// OperationStore is the slice of the repository the service needs.
type OperationStore interface {
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	CreateOperation(ctx context.Context, op core.BankOperation) (core.BankOperation, error)
	UpdateOperation(ctx context.Context, id int64, op core.BankOperation) (core.BankOperation, error)
}

// ChangePublisher announces operation writes to interested consumers.
type ChangePublisher interface {
	PublishOperationChanged(ctx context.Context, accountID, operationID int64, action string) error
}

// OperationService validates and persists bank operations, then publishes
// a change event. Persistence is authoritative; a publish failure is
// logged and swallowed so the write never fails because the broker is
// down.
type OperationService struct {
	store     OperationStore
	publisher ChangePublisher
}

func NewOperationService(store OperationStore, publisher ChangePublisher) *OperationService {
	return &OperationService{store: store, publisher: publisher}
}

// Create validates op against its stored category and persists it.
func (s *OperationService) Create(ctx context.Context, op core.BankOperation) (core.BankOperation, error) {
	if err := s.attachCategory(ctx, &op); err != nil {
		return core.BankOperation{}, err
	}
	if err := op.Validate(); err != nil {
		return core.BankOperation{}, fmt.Errorf("create operation: %w", err)
	}

	saved, err := s.store.CreateOperation(ctx, op)
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("create operation: %w", err)
	}

	s.publishChange(ctx, saved, amqp.ActionCreated)
	return saved, nil
}

// Update validates op against its stored category and overwrites the row.
func (s *OperationService) Update(ctx context.Context, id int64, op core.BankOperation) (core.BankOperation, error) {
	if err := s.attachCategory(ctx, &op); err != nil {
		return core.BankOperation{}, err
	}
	if err := op.Validate(); err != nil {
		return core.BankOperation{}, fmt.Errorf("update operation %d: %w", id, err)
	}

	saved, err := s.store.UpdateOperation(ctx, id, op)
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("update operation %d: %w", id, err)
	}

	s.publishChange(ctx, saved, amqp.ActionUpdated)
	return saved, nil
}

// attachCategory replaces the request's category stub with the stored
// category, so type agreement and sub-category membership are checked
// against the real taxonomy.
func (s *OperationService) attachCategory(ctx context.Context, op *core.BankOperation) error {
	cat, err := s.store.GetCategory(ctx, op.Category.ID)
	if err != nil {
		return fmt.Errorf("load category %d: %w", op.Category.ID, err)
	}
	op.Category = cat
	return nil
}

func (s *OperationService) publishChange(ctx context.Context, op core.BankOperation, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOperationChanged(ctx, op.AccountID, op.ID, action); err != nil {
		slog.ErrorContext(ctx, "failed to publish operation changed message",
			"error", err,
			"accountId", op.AccountID,
			"operationId", op.ID,
			"action", action)
	}
}
