package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DealType is the kind of real-estate transaction.
type DealType string

// Deal types.
const (
	DealSale    DealType = "SALE"
	DealLease   DealType = "LEASE"
	DealMonthly DealType = "MONTHLY"
)

// IsSale reports whether the deal is an outright sale.
func (d DealType) IsSale() bool { return d == DealSale }

// PropertyType is the building category used to pick a transaction registry.
type PropertyType string

// Property types.
const (
	PropertyApartment PropertyType = "APARTMENT"
	PropertyRowhouse  PropertyType = "ROWHOUSE"
	PropertyDetached  PropertyType = "DETACHED"
	PropertyOfficetel PropertyType = "OFFICETEL"
)

// ParseDealType parses a deal type case-insensitively. An empty string
// defaults to DealSale.
func ParseDealType(s string) (DealType, error) {
	switch d := DealType(strings.ToUpper(strings.TrimSpace(s))); d {
	case "":
		return DealSale, nil
	case DealSale, DealLease, DealMonthly:
		return d, nil
	default:
		return "", eris.Errorf("model: unknown deal type %q", s)
	}
}

// ParsePropertyType parses a property type case-insensitively. An empty
// string defaults to PropertyApartment.
func ParsePropertyType(s string) (PropertyType, error) {
	switch p := PropertyType(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PropertyApartment, nil
	case PropertyApartment, PropertyRowhouse, PropertyDetached, PropertyOfficetel:
		return p, nil
	default:
		return "", eris.Errorf("model: unknown property type %q", s)
	}
}

// ComparableTransaction is one recent registry transaction used as a price
// baseline. Price is in won.
type ComparableTransaction struct {
	Price    int64    `json:"price"`
	AreaSqm  float64  `json:"area_sqm"`
	DealType DealType `json:"deal_type"`
}

// Comparables is the outcome of a transaction-registry lookup. Consumers
// read Transactions only: an empty list means "no baseline" whether or not
// the call failed. Err records the failure, if any, so the degradation stays
// visible to logs.
type Comparables struct {
	Transactions []ComparableTransaction
	Err          error
}

// Degraded reports whether the list is empty because the lookup failed.
func (c Comparables) Degraded() bool { return c.Err != nil }
