package model

// BuildingFacts are the building-ledger attributes used for risk scoring.
type BuildingFacts struct {
	IsViolation      bool   `json:"is_violation"`
	HasSeismicDesign bool   `json:"has_seismic_design"`
	BuildingAgeYears int    `json:"building_age_years"`
	PrimaryUse       string `json:"primary_use"`
}
