// Package district resolves free-text addresses to legal district codes
// and lot numbers against the national legal-district reference table.
package district

import (
	"github.com/sells-group/parcel-risk/internal/model"
)

// Table is an immutable legal-district reference table. Build it once with
// NewTable and share it freely; no method mutates it.
type Table struct {
	records []model.LegalDistrictRecord
	byName  map[string]int
	maxLen  int
}

// NewTable builds a table from records in order. Duplicate codes and
// duplicate names keep their first occurrence.
func NewTable(records []model.LegalDistrictRecord) *Table {
	t := &Table{
		records: make([]model.LegalDistrictRecord, 0, len(records)),
		byName:  make(map[string]int, len(records)),
	}
	seenCode := make(map[string]bool, len(records))
	for _, r := range records {
		if seenCode[r.Code] {
			continue
		}
		seenCode[r.Code] = true
		t.records = append(t.records, r)
		if _, ok := t.byName[r.Name]; !ok {
			t.byName[r.Name] = len(t.records) - 1
		}
		if len(r.Name) > t.maxLen {
			t.maxLen = len(r.Name)
		}
	}
	return t
}

// Table returns t itself so a pre-built table can be handed to a Codec.
func (t *Table) Table() (*Table, error) {
	return t, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of the records in table order.
func (t *Table) Records() []model.LegalDistrictRecord {
	out := make([]model.LegalDistrictRecord, len(t.records))
	copy(out, t.records)
	return out
}

// LongestPrefix returns the record with the longest name that is a string
// prefix of s. Equal-length matches are identical names, so the first
// record in table order wins.
func (t *Table) LongestPrefix(s string) (model.LegalDistrictRecord, bool) {
	n := len(s)
	if n > t.maxLen {
		n = t.maxLen
	}
	for ; n > 0; n-- {
		if idx, ok := t.byName[s[:n]]; ok {
			return t.records[idx], true
		}
	}
	return model.LegalDistrictRecord{}, false
}
