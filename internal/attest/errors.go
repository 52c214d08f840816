package attest

import "errors"

var (
	ErrUnavailable  = errors.New("attestation service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("signing token expired")
)
