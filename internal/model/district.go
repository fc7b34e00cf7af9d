package model

// LegalDistrictRecord is one row of the legal-district reference table.
type LegalDistrictRecord struct {
	Code string `json:"code"` // 10-digit legal district code
	Name string `json:"name"` // e.g. "서울특별시 강남구 역삼동"
}

// ResolvedAddress is the parcel location an address string resolves to.
// Lot numbers are zero-padded to four digits.
type ResolvedAddress struct {
	LegalCode     string `json:"legal_code"`
	CanonicalName string `json:"canonical_name"`
	LotMain       string `json:"lot_main"`
	LotSub        string `json:"lot_sub"`
}

// SigunguCode returns the 5-digit municipal prefix of the legal code.
func (r ResolvedAddress) SigunguCode() string {
	return MunicipalPrefix(r.LegalCode)
}

// MunicipalPrefix returns the first five characters of a district code, or
// the whole code when it is shorter.
func MunicipalPrefix(code string) string {
	if len(code) < 5 {
		return code
	}
	return code[:5]
}

// Parcel is the decomposed form of a 19-character parcel identifier (PNU).
// Lot numbers carry no leading zeros; an all-zero lot is "0".
type Parcel struct {
	DistrictCode string `json:"district_code"`
	LotMain      string `json:"lot_main"`
	LotSub       string `json:"lot_sub"`
}
