package domain

import "errors"

var (
	// ErrUnknownCategory is returned for category names outside the known set.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidLead is returned for lead specs other than "<n>m" or "<n>h".
	ErrInvalidLead = errors.New("invalid lead")
	// ErrInvalidOccurrence is returned when an occurrence misses id, category or start.
	ErrInvalidOccurrence = errors.New("invalid occurrence")
)
