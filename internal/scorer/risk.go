// Package scorer turns building facts and comparable transactions into
// bounded integer scores with a human-readable rationale. Everything here is
// pure: no I/O, no clock, no shared state.
package scorer

import (
	"strings"

	"github.com/sells-group/parcel-risk/internal/model"
)

// Risk weights.
const (
	violationPoints = 45
	noSeismicPoints = 10
)

const (
	violationFactor = "위반 건축물"
	noSeismicFactor = "내진설계 미적용"
	noRiskRationale = "특이 위험 요인 없음"
)

// ageBucket awards points for buildings at least minYears old.
type ageBucket struct {
	minYears int
	points   int
	label    string
}

// ageBuckets are ordered oldest first. Only buckets with a label appear in
// the rationale.
var ageBuckets = []ageBucket{
	{minYears: 30, points: 20, label: "준공 30년 이상"},
	{minYears: 20, points: 14, label: "준공 20년 이상"},
	{minYears: 10, points: 8, label: "준공 10년 이상"},
	{minYears: 6, points: 4},
}

// useCategory matches a primary-use name by substring.
type useCategory struct {
	points   int
	keywords []string
}

// useCategories are ordered by descending points so that 생활형숙박시설
// lands in the lodging bucket. Residential uses (단독주택, 다가구주택,
// 다세대주택, 연립주택, 아파트) score zero and need no entry.
var useCategories = []useCategory{
	{points: 25, keywords: []string{"숙박시설", "창고시설", "공장"}},
	{points: 18, keywords: []string{"고시원", "근린생활시설", "업무시설", "다중주택"}},
	{points: 8, keywords: []string{"오피스텔"}},
}

// ScoreRisk computes the structural and legal risk of a building.
func ScoreRisk(facts model.BuildingFacts) model.RiskScoreResult {
	var (
		score   int
		reasons []string
	)

	if facts.IsViolation {
		score += violationPoints
		reasons = append(reasons, violationFactor)
	}
	if !facts.HasSeismicDesign {
		score += noSeismicPoints
		reasons = append(reasons, noSeismicFactor)
	}
	if b, ok := ageBucketFor(facts.BuildingAgeYears); ok {
		score += b.points
		if b.label != "" {
			reasons = append(reasons, b.label)
		}
	}
	if pts := UsePoints(facts.PrimaryUse); pts > 0 {
		score += pts
		reasons = append(reasons, "위험 용도("+strings.TrimSpace(facts.PrimaryUse)+")")
	}

	rationale := noRiskRationale
	if len(reasons) > 0 {
		rationale = strings.Join(reasons, ", ")
	}

	return model.RiskScoreResult{
		Score:        score,
		SeverityTier: Severity(score),
		Rationale:    rationale,
		Factors:      facts,
	}
}

func ageBucketFor(years int) (ageBucket, bool) {
	for _, b := range ageBuckets {
		if years >= b.minYears {
			return b, true
		}
	}
	return ageBucket{}, false
}

// UsePoints returns the risk points for a primary-use category name.
// Compound names such as "업무시설(오피스텔)" are scored by their most
// specific part: the last segment that matches a category. Unrecognized
// categories score zero.
func UsePoints(use string) int {
	segments := strings.FieldsFunc(use, isUseSeparator)
	for i := len(segments) - 1; i >= 0; i-- {
		if pts, ok := categoryPoints(strings.TrimSpace(segments[i])); ok {
			return pts
		}
	}
	return 0
}

func categoryPoints(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	for _, c := range useCategories {
		for _, kw := range c.keywords {
			if strings.Contains(segment, kw) {
				return c.points, true
			}
		}
	}
	return 0, false
}

func isUseSeparator(r rune) bool {
	switch r {
	case '(', ')', ',', '/', '·':
		return true
	}
	return false
}

// Severity maps a risk score onto the 1-5 tier ladder.
func Severity(score int) int {
	switch {
	case score <= 19:
		return 1
	case score <= 39:
		return 2
	case score <= 59:
		return 3
	case score <= 79:
		return 4
	default:
		return 5
	}
}
