package integrity

import "errors"

// Sentinel defects reported by Check.
var (
	ErrDuplicate = errors.New("duplicate record")
	ErrDangling  = errors.New("dangling reference")
)
