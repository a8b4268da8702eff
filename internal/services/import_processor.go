package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/state"
)

// ImportProcessor applies queued import batches. Handle matches
// amqp.ImportHandler.
type ImportProcessor struct {
	service *FinanceService
}

func NewImportProcessor(service *FinanceService) *ImportProcessor {
	return &ImportProcessor{service: service}
}

// Handle merges msg into the sender's state. Re-delivered batches are
// harmless: already known external ids are skipped.
func (p *ImportProcessor) Handle(ctx context.Context, msg *amqp.ImportBatchMessage) error {
	slog.InfoContext(ctx, "Processing import batch",
		"user_id", msg.UserID,
		"batch_size", len(msg.Transactions),
		"queued_at", msg.Timestamp)

	res, err := p.service.ApplyImport(ctx, msg.UserID, msg.Transactions)
	if err != nil {
		if isPermanent(err) {
			return fmt.Errorf("apply import batch for %s: %w: %w", msg.UserID, amqp.ErrRejected, err)
		}
		return fmt.Errorf("apply import batch for %s: %w", msg.UserID, err)
	}

	slog.InfoContext(ctx, "Import batch processed",
		"user_id", msg.UserID,
		"added", res.Added,
		"skipped", res.Skipped)
	return nil
}

// isPermanent reports whether redelivering the batch would fail the same way.
func isPermanent(err error) bool {
	return core.IsValidationError(err) ||
		errors.Is(err, state.ErrEmptyUserID) ||
		errors.Is(err, state.ErrDuplicateID)
}
