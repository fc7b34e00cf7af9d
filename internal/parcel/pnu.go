// Package parcel decodes fixed-width parcel identifiers (PNU).
package parcel

import (
	"strings"

	"github.com/sells-group/parcel-risk/internal/model"
)

// IDLength is the width of a parcel identifier.
const IDLength = 19

// Layout: 10-char district code, 1-char land classification, 4-char lot
// main, 4-char lot sub.
const (
	districtEnd = 10
	lotMainFrom = 11
	lotMainEnd  = 15
)

// Decode splits a parcel identifier into district code and lot numbers.
// The land-classification character is discarded. Decoding is positional
// only; there is no checksum.
func Decode(id string) (model.Parcel, error) {
	r := []rune(id)
	if len(r) != IDLength {
		return model.Parcel{}, &model.ParcelIDLengthError{Value: id, Length: len(r)}
	}
	return model.Parcel{
		DistrictCode: string(r[:districtEnd]),
		LotMain:      trimLot(string(r[lotMainFrom:lotMainEnd])),
		LotSub:       trimLot(string(r[lotMainEnd:])),
	}, nil
}

func trimLot(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}
