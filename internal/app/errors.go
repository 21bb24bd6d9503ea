package app

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptySelection    = errors.New("nothing selected")
	ErrMixedVendors      = errors.New("selection spans multiple vendors")
	ErrIllegalTransition = errors.New("order must join a group before leaving Requested")
	ErrVendorMismatch    = errors.New("target has a different vendor")
)
