package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/parcel-risk/internal/analysis"
	"github.com/sells-group/parcel-risk/internal/model"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func formatRisk(out io.Writer, r model.RiskScoreResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Risk score:\t%d\n", r.Score)
	_, _ = fmt.Fprintf(w, "Severity tier:\t%d\n", r.SeverityTier)
	_, _ = fmt.Fprintf(w, "Rationale:\t%s\n", r.Rationale)
	_, _ = fmt.Fprintf(w, "Violation:\t%s\n", yesNo(r.Factors.IsViolation))
	_, _ = fmt.Fprintf(w, "Seismic design:\t%s\n", yesNo(r.Factors.HasSeismicDesign))
	_, _ = fmt.Fprintf(w, "Age (years):\t%d\n", r.Factors.BuildingAgeYears)
	_, _ = fmt.Fprintf(w, "Primary use:\t%s\n", r.Factors.PrimaryUse)
	_ = w.Flush()
}

func formatPrice(out io.Writer, r model.PriceScoreResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Price score:\t%d\n", r.Score)
	_, _ = fmt.Fprintf(w, "Rationale:\t%s\n", r.Rationale)
	_, _ = fmt.Fprintf(w, "Deal type:\t%s\n", r.Metrics.DealType)
	_, _ = fmt.Fprintf(w, "Price / pyeong:\t%.0f\n", r.Metrics.PricePerPyeong)
	_, _ = fmt.Fprintf(w, "Area avg / pyeong:\t%.0f\n", r.Metrics.AreaAveragePricePerPyeong)
	_ = w.Flush()
}

func formatReport(out io.Writer, r analysis.Report) {
	_, _ = fmt.Fprintf(out, "%s → %s (%s) %s-%s\n\n",
		r.Address, r.Resolved.CanonicalName, r.Resolved.LegalCode, r.Resolved.LotMain, r.Resolved.LotSub)
	formatRisk(out, r.Risk)
	_, _ = fmt.Fprintln(out)
	formatPrice(out, r.Price)
	note := ""
	if r.ComparablesDegraded {
		note = " (transaction registry unavailable)"
	}
	_, _ = fmt.Fprintf(out, "Comparables: %d%s\n", r.ComparableCount, note)
}

func formatRiskHistory(out io.Writer, rows []model.RiskHistory) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tADDRESS\tSCORE\tTIER\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t-----\t----\t-------")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			truncateID(r.ID), truncate(r.Address, 40), r.RiskScore, r.SeverityTier,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func formatPriceHistory(out io.Writer, rows []model.PriceHistory) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tADDRESS\tDEAL\tSCORE\tRATIONALE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t----\t-----\t---------\t-------")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID), truncate(r.Address, 40), r.DealType, r.PriceScore, r.Rationale,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
