package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/parcel-risk/internal/model"
	"github.com/sells-group/parcel-risk/internal/store"
)

// Beginner opens history transactions. store.Store implements it.
type Beginner interface {
	Begin(ctx context.Context) (store.Tx, error)
}

// Service runs each analysis inside its own history transaction.
type Service struct {
	analyzer *Analyzer
	history  Beginner
}

// NewService creates a Service.
func NewService(analyzer *Analyzer, history Beginner) *Service {
	return &Service{analyzer: analyzer, history: history}
}

// Risk scores the building at address.
func (s *Service) Risk(ctx context.Context, address string) (model.RiskScoreResult, error) {
	var out model.RiskScoreResult
	err := s.inTx(ctx, "risk", func(tx store.Tx) error {
		var err error
		out, err = s.analyzer.Risk(ctx, tx, address)
		return err
	})
	return out, err
}

// RiskByParcel scores the building identified by a parcel id.
func (s *Service) RiskByParcel(ctx context.Context, parcelID string) (model.RiskScoreResult, error) {
	var out model.RiskScoreResult
	err := s.inTx(ctx, "risk_by_parcel", func(tx store.Tx) error {
		var err error
		out, err = s.analyzer.RiskByParcel(ctx, tx, parcelID)
		return err
	})
	return out, err
}

// Price scores a deal.
func (s *Service) Price(ctx context.Context, req PriceRequest) (model.PriceScoreResult, error) {
	var out model.PriceScoreResult
	err := s.inTx(ctx, "price", func(tx store.Tx) error {
		var err error
		out, err = s.analyzer.Price(ctx, tx, req)
		return err
	})
	return out, err
}

// Report runs both analyses. Either both history rows are written or
// neither is.
func (s *Service) Report(ctx context.Context, req PriceRequest) (Report, error) {
	var out Report
	err := s.inTx(ctx, "report", func(tx store.Tx) error {
		var err error
		out, err = s.analyzer.Report(ctx, tx, req)
		return err
	})
	return out, err
}

func (s *Service) inTx(ctx context.Context, op string, fn func(tx store.Tx) error) error {
	tx, err := s.history.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			zap.L().Error("analysis: rollback failed", zap.String("op", op), zap.Error(rbErr))
		}
		zap.L().Warn("analysis: rolled back", zap.String("op", op), zap.Error(err))
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	zap.L().Info("analysis: history committed", zap.String("op", op))
	return nil
}
