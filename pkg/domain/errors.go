package domain

import "errors"

// ErrInvariant marks a structural invariant violation. Operations in this
// package never produce one from a valid document; detecting one means the
// document was built or decoded incorrectly.
var ErrInvariant = errors.New("document invariant violated")

// ErrMalformedDocument is returned by Parse when the input is not a valid encoding.
var ErrMalformedDocument = errors.New("malformed document")
