package model

import "time"

// RiskScoreResult is the structural/legal risk assessment of a building.
type RiskScoreResult struct {
	Score        int           `json:"score"`
	SeverityTier int           `json:"severity_tier"`
	Rationale    string        `json:"rationale"`
	Factors      BuildingFacts `json:"factors"`
}

// PriceMetrics are the inputs behind a price score.
type PriceMetrics struct {
	PricePerPyeong            float64 `json:"price_per_pyeong"`
	AreaAveragePricePerPyeong float64 `json:"area_average_price_per_pyeong"`
	DealType                  string  `json:"deal_type"`
}

// PriceScoreResult is the price-fairness assessment of a deal.
type PriceScoreResult struct {
	Score     int          `json:"score"`
	Rationale string       `json:"rationale"`
	Metrics   PriceMetrics `json:"metrics"`
}

// RiskHistory is a persisted risk analysis.
type RiskHistory struct {
	ID           string        `json:"id"`
	Address      string        `json:"address"`
	RiskScore    int           `json:"risk_score"`
	SeverityTier int           `json:"severity_tier"`
	Factors      BuildingFacts `json:"factors"`
	CreatedAt    time.Time     `json:"created_at"`
}

// PriceHistory is a persisted price analysis.
type PriceHistory struct {
	ID         string       `json:"id"`
	Address    string       `json:"address"`
	DealType   string       `json:"deal_type"`
	PriceScore int          `json:"price_score"`
	Rationale  string       `json:"rationale"`
	Metrics    PriceMetrics `json:"metrics"`
	CreatedAt  time.Time    `json:"created_at"`
}
