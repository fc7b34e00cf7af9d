package model

import (
	"errors"
	"fmt"
)

// ErrInvalidDealInput is returned when a price analysis is requested with a
// non-positive price or area.
var ErrInvalidDealInput = errors.New("price and area must be positive")

// InvalidAddressError reports an address that cannot be resolved to a
// legal district and lot.
type InvalidAddressError struct {
	Address string
	Reason  string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Address, e.Reason)
}

// BuildingInfoNotFoundError reports any failed building-ledger lookup: an
// API error code, an empty result, a malformed response or a transport
// failure. Transient is set when the underlying failure looked temporary
// (timeout, 5xx, 429); nothing retries on it.
type BuildingInfoNotFoundError struct {
	Code      string
	Message   string
	Transient bool
	Err       error
}

func (e *BuildingInfoNotFoundError) Error() string {
	msg := "building info not found"
	if e.Code != "" {
		msg += fmt.Sprintf(" (code=%s)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildingInfoNotFoundError) Unwrap() error { return e.Err }

// ParcelIDLengthError reports a parcel identifier that is not 19 characters.
type ParcelIDLengthError struct {
	Value  string
	Length int
}

func (e *ParcelIDLengthError) Error() string {
	return fmt.Sprintf("parcel id must be 19 characters, got %d (%q)", e.Length, e.Value)
}
