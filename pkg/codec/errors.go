package codec

import "errors"

// ErrInvalidAccountType is returned when an account's discriminant byte does
// not match the type being decoded into (invariant I1).
var ErrInvalidAccountType = errors.New("invalid account type")
