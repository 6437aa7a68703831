package aging

import "errors"

// Sentinel kinds for aging errors.
var (
	ErrBadReckoningDate = errors.New("invalid reckoning date")
	ErrOrphanResult     = errors.New("result references unknown tournament")
)
