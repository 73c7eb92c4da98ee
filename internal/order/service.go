package order

import (
	"context"
	"fmt"

	"naboopay-gateway/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetOrder(ctx context.Context, orderID int64) (*Record, error)
	AttachTransaction(ctx context.Context, orderID int64, transactionID string) error
	FindByTransaction(ctx context.Context, transactionID string) ([]int64, error)

	// MarkAsPaid completes the payment and moves the order to status.
	MarkAsPaid(ctx context.Context, orderID int64, status Status, note string) error
	UpdateStatus(ctx context.Context, orderID int64, status Status, note string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetOrder(ctx context.Context, orderID int64) (*Record, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *service) AttachTransaction(ctx context.Context, orderID int64, transactionID string) error {
	return s.repo.SetMeta(ctx, orderID, MetaNaboopayOrderID, transactionID)
}

func (s *service) FindByTransaction(ctx context.Context, transactionID string) ([]int64, error) {
	return s.repo.FindByMeta(ctx, MetaNaboopayOrderID, transactionID)
}

func (s *service) MarkAsPaid(ctx context.Context, orderID int64, status Status, note string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	log := logger.FromCtx(ctx).With(
		zap.Int64("order_id", orderID),
		zap.String("status", string(status)),
	)

	changed, err := s.repo.CompletePayment(ctx, orderID, status, note)
	if err != nil {
		return err
	}

	if !changed {
		log.Debug("order already paid, skipping")
		return nil
	}

	log.Info("order marked as paid")
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, status Status, note string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	changed, err := s.repo.UpdateStatus(ctx, orderID, status, note)
	if err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(status)),
		zap.Bool("changed", changed),
	)
	return nil
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusOnHold, StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}
