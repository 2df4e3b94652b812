package status

import "errors"

var (
	ErrLoginRequired   = errors.New("session: login required")
	ErrNoLocation      = errors.New("geo: no location available")
	ErrAlreadyReserved = errors.New("reservation: event already reserved")
	ErrInvalidUpload   = errors.New("upload: invalid event")
	ErrNotConfirmed    = errors.New("profile: deletion not confirmed")
)
