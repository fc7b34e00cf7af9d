package district

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-risk/internal/model"
)

// TableProvider supplies the reference table. *Table and *Loader both
// implement it.
type TableProvider interface {
	Table() (*Table, error)
}

// lotSuffixRe matches the trailing "번-지" lot number, e.g. "777" or "777-12".
var lotSuffixRe = regexp.MustCompile(`(\d+)(?:-(\d+))?\s*$`)

// provinceAliases maps colloquial leading tokens to the official names the
// registry uses. Several candidates cover renamed provinces.
var provinceAliases = map[string][]string{
	"서울":   {"서울특별시"},
	"서울시":  {"서울특별시"},
	"부산":   {"부산광역시"},
	"부산시":  {"부산광역시"},
	"대구":   {"대구광역시"},
	"대구시":  {"대구광역시"},
	"인천":   {"인천광역시"},
	"인천시":  {"인천광역시"},
	"광주":   {"광주광역시"},
	"광주시":  {"광주광역시"},
	"대전":   {"대전광역시"},
	"대전시":  {"대전광역시"},
	"울산":   {"울산광역시"},
	"울산시":  {"울산광역시"},
	"세종":   {"세종특별자치시"},
	"세종시":  {"세종특별자치시"},
	"경기":   {"경기도"},
	"강원":   {"강원특별자치도", "강원도"},
	"강원도":  {"강원특별자치도"},
	"충북":   {"충청북도"},
	"충남":   {"충청남도"},
	"전북":   {"전북특별자치도", "전라북도"},
	"전라북도": {"전북특별자치도"},
	"전남":   {"전라남도"},
	"경북":   {"경상북도"},
	"경남":   {"경상남도"},
	"제주":   {"제주특별자치도"},
	"제주도":  {"제주특별자치도"},
}

// Codec resolves addresses against the reference table.
type Codec struct {
	tables TableProvider
}

// NewCodec creates a Codec reading from tables.
func NewCodec(tables TableProvider) *Codec {
	return &Codec{tables: tables}
}

// Resolve parses a free-text address such as "서울특별시 강남구 역삼동 777-12"
// into the legal district whose name is the longest prefix of the address
// and zero-padded lot numbers. A missing lot sub number becomes "0000".
func (c *Codec) Resolve(address string) (model.ResolvedAddress, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return model.ResolvedAddress{}, &model.InvalidAddressError{Address: address, Reason: "address is blank"}
	}

	m := lotSuffixRe.FindStringSubmatchIndex(trimmed)
	if m == nil {
		return model.ResolvedAddress{}, &model.InvalidAddressError{Address: address, Reason: "no lot number"}
	}
	lotMain := trimmed[m[2]:m[3]]
	var lotSub string
	if m[4] >= 0 {
		lotSub = trimmed[m[4]:m[5]]
	}
	base := strings.Join(strings.Fields(trimmed[:m[0]]), " ")
	if base == "" {
		return model.ResolvedAddress{}, &model.InvalidAddressError{Address: address, Reason: "no district name"}
	}

	table, err := c.tables.Table()
	if err != nil {
		return model.ResolvedAddress{}, eris.Wrap(err, "district: load reference table")
	}

	rec, ok := longestMatch(table, base)
	if !ok {
		return model.ResolvedAddress{}, &model.InvalidAddressError{Address: address, Reason: "no legal district matches"}
	}
	if !isSubDistrict(rec.Code) {
		return model.ResolvedAddress{}, &model.InvalidAddressError{
			Address: address,
			Reason:  "no dong/ri-level district matches (closest: " + rec.Name + ")",
		}
	}

	return model.ResolvedAddress{
		LegalCode:     rec.Code,
		CanonicalName: rec.Name,
		LotMain:       padLot(lotMain),
		LotSub:        padLot(lotSub),
	}, nil
}

// longestMatch tries base as written and with its leading province token
// expanded, keeping the longest district name found.
func longestMatch(table *Table, base string) (model.LegalDistrictRecord, bool) {
	best, found := table.LongestPrefix(base)

	head, rest, _ := strings.Cut(base, " ")
	for _, official := range provinceAliases[head] {
		candidate := official
		if rest != "" {
			candidate += " " + rest
		}
		if rec, ok := table.LongestPrefix(candidate); ok && (!found || len(rec.Name) > len(best.Name)) {
			best, found = rec, true
		}
	}
	return best, found
}

// isSubDistrict reports whether code names a dong, eup, myeon or ri. Province
// and municipal rows end in "00000", which no building is registered under.
func isSubDistrict(code string) bool {
	return !strings.HasSuffix(code, "00000")
}

func padLot(s string) string {
	if len(s) >= 4 {
		return s
	}
	return strings.Repeat("0", 4-len(s)) + s
}
