package model

import "errors"

var (
	// ErrInvalidCoordinate marks a malformed GPS fix (NaN or out of range).
	// Samples carrying one are rejected, not silently resolved.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrNoJurisdiction means neither the location nor the registration lookup
	// produced an authority. The report is still assembled and flagged for
	// manual routing.
	ErrNoJurisdiction = errors.New("no jurisdiction determined")

	// ErrLedgerWrite is returned once ledger write retries are exhausted. The
	// event stays reportable but uncounted.
	ErrLedgerWrite = errors.New("ledger write failure")
)
