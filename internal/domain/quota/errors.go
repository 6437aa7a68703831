package quota

import "errors"

// Sentinel kinds for quota errors.
var (
	ErrNegativeSeats = errors.New("negative seat request")
)
