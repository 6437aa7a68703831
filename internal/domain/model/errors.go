package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrUnknownRuleset  = errors.New("unknown ruleset")
	ErrFieldTooSmall   = errors.New("tournament field too small for base rank")
	ErrInvalidPosition = errors.New("finishing position out of range")
)
