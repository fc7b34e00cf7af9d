// Package analysis runs the address → registry → score → history pipeline.
//
// Analyzer is the core: it resolves, fetches, scores and hands the result to
// a HistoryWriter, but never decides transaction boundaries. Service wraps
// each Analyzer call in a store transaction, committing on success and
// rolling back on any error.
package analysis

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/parcel-risk/internal/model"
	"github.com/sells-group/parcel-risk/internal/parcel"
	"github.com/sells-group/parcel-risk/internal/scorer"
)

// AddressResolver resolves a free-text address. *district.Codec implements it.
type AddressResolver interface {
	Resolve(address string) (model.ResolvedAddress, error)
}

// BuildingSource fetches building facts. *buildingledger.Client implements it.
type BuildingSource interface {
	Fetch(ctx context.Context, districtCode, lotMain, lotSub string) (model.BuildingFacts, error)
}

// TradeSource fetches comparable transactions. *realtrade.Client implements it.
type TradeSource interface {
	Fetch(ctx context.Context, districtCode string, deal model.DealType, property model.PropertyType) model.Comparables
}

// HistoryWriter records results. store.Tx implements it.
type HistoryWriter interface {
	SaveRisk(ctx context.Context, address string, result model.RiskScoreResult) error
	SavePrice(ctx context.Context, address string, result model.PriceScoreResult) error
}

// PriceRequest is a deal to score. Zero DealType and PropertyType default
// to SALE and APARTMENT.
type PriceRequest struct {
	Address      string             `json:"address"`
	DealType     model.DealType     `json:"deal_type,omitempty"`
	PropertyType model.PropertyType `json:"property_type,omitempty"`
	Price        int64              `json:"price"`
	AreaSqm      float64            `json:"area"`
}

func (r PriceRequest) normalized() (PriceRequest, error) {
	if r.Price <= 0 || r.AreaSqm <= 0 {
		return r, model.ErrInvalidDealInput
	}
	if r.DealType == "" {
		r.DealType = model.DealSale
	}
	if r.PropertyType == "" {
		r.PropertyType = model.PropertyApartment
	}
	r.Address = strings.TrimSpace(r.Address)
	return r, nil
}

// Report combines risk and price analyses of one address.
type Report struct {
	Address             string                 `json:"address"`
	Resolved            model.ResolvedAddress  `json:"resolved"`
	Risk                model.RiskScoreResult  `json:"risk"`
	Price               model.PriceScoreResult `json:"price"`
	ComparableCount     int                    `json:"comparable_count"`
	ComparablesDegraded bool                   `json:"comparables_degraded"`
}

// Analyzer computes scores from registry data.
type Analyzer struct {
	resolver  AddressResolver
	buildings BuildingSource
	trades    TradeSource
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(resolver AddressResolver, buildings BuildingSource, trades TradeSource) *Analyzer {
	return &Analyzer{resolver: resolver, buildings: buildings, trades: trades}
}

// Risk scores the building at address and records the result.
func (a *Analyzer) Risk(ctx context.Context, w HistoryWriter, address string) (model.RiskScoreResult, error) {
	address = strings.TrimSpace(address)
	resolved, err := a.resolver.Resolve(address)
	if err != nil {
		return model.RiskScoreResult{}, err
	}

	facts, err := a.buildings.Fetch(ctx, resolved.LegalCode, resolved.LotMain, resolved.LotSub)
	if err != nil {
		return model.RiskScoreResult{}, err
	}

	result := scorer.ScoreRisk(facts)
	if err := w.SaveRisk(ctx, address, result); err != nil {
		return model.RiskScoreResult{}, err
	}

	zap.L().Info("analysis: risk scored",
		zap.String("legal_code", resolved.LegalCode),
		zap.Int("score", result.Score),
		zap.Int("tier", result.SeverityTier),
	)
	return result, nil
}

// RiskByParcel scores the building identified by a 19-character parcel id.
// The parcel id is the history key.
func (a *Analyzer) RiskByParcel(ctx context.Context, w HistoryWriter, parcelID string) (model.RiskScoreResult, error) {
	p, err := parcel.Decode(parcelID)
	if err != nil {
		return model.RiskScoreResult{}, err
	}

	facts, err := a.buildings.Fetch(ctx, p.DistrictCode, p.LotMain, p.LotSub)
	if err != nil {
		return model.RiskScoreResult{}, err
	}

	result := scorer.ScoreRisk(facts)
	if err := w.SaveRisk(ctx, parcelID, result); err != nil {
		return model.RiskScoreResult{}, err
	}

	zap.L().Info("analysis: parcel risk scored",
		zap.String("pnu", parcelID),
		zap.Int("score", result.Score),
	)
	return result, nil
}

// Price scores a deal against comparable transactions and records the
// result. A failed or empty comparable lookup yields the neutral score.
func (a *Analyzer) Price(ctx context.Context, w HistoryWriter, req PriceRequest) (model.PriceScoreResult, error) {
	req, err := req.normalized()
	if err != nil {
		return model.PriceScoreResult{}, err
	}

	resolved, err := a.resolver.Resolve(req.Address)
	if err != nil {
		return model.PriceScoreResult{}, err
	}

	comps := a.trades.Fetch(ctx, resolved.LegalCode, req.DealType, req.PropertyType)
	logDegraded(resolved, comps)

	result := scorer.ScorePrice(req.Price, req.AreaSqm, req.DealType, comps.Transactions)
	if err := w.SavePrice(ctx, req.Address, result); err != nil {
		return model.PriceScoreResult{}, err
	}

	zap.L().Info("analysis: price scored",
		zap.String("legal_code", resolved.LegalCode),
		zap.String("deal_type", string(req.DealType)),
		zap.Int("comparables", len(comps.Transactions)),
		zap.Int("score", result.Score),
	)
	return result, nil
}

// Report runs the risk and price analyses of one address, fetching building
// facts and comparables concurrently.
func (a *Analyzer) Report(ctx context.Context, w HistoryWriter, req PriceRequest) (Report, error) {
	req, err := req.normalized()
	if err != nil {
		return Report{}, err
	}

	resolved, err := a.resolver.Resolve(req.Address)
	if err != nil {
		return Report{}, err
	}

	var (
		facts model.BuildingFacts
		comps model.Comparables
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		facts, err = a.buildings.Fetch(gctx, resolved.LegalCode, resolved.LotMain, resolved.LotSub)
		return err
	})
	g.Go(func() error {
		comps = a.trades.Fetch(gctx, resolved.LegalCode, req.DealType, req.PropertyType)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	logDegraded(resolved, comps)

	risk := scorer.ScoreRisk(facts)
	price := scorer.ScorePrice(req.Price, req.AreaSqm, req.DealType, comps.Transactions)

	if err := w.SaveRisk(ctx, req.Address, risk); err != nil {
		return Report{}, err
	}
	if err := w.SavePrice(ctx, req.Address, price); err != nil {
		return Report{}, err
	}

	return Report{
		Address:             req.Address,
		Resolved:            resolved,
		Risk:                risk,
		Price:               price,
		ComparableCount:     len(comps.Transactions),
		ComparablesDegraded: comps.Degraded(),
	}, nil
}

func logDegraded(resolved model.ResolvedAddress, comps model.Comparables) {
	if comps.Degraded() {
		zap.L().Warn("analysis: comparables unavailable, scoring against subject",
			zap.String("legal_code", resolved.LegalCode),
			zap.Error(comps.Err),
		)
	}
}
