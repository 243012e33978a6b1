package reefer

import "errors"

// ErrInvalidConfiguration is returned, wrapped, for any rejected generation
// parameter. No rows are produced when it is returned.
var ErrInvalidConfiguration = errors.New("invalid configuration")
