package seed

import "errors"

// ErrBadShape rejects generation parameters that cannot produce a
// plausible dataset.
var ErrBadShape = errors.New("bad dataset shape")
