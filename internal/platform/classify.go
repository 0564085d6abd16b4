package platform

import "errors"

// Outcome tells the retry wrapper what to do with a publish error.
type Outcome int

const (
	Retryable Outcome = iota
	FatalForAccount
	TreatAsSuccess
)

// ErrMediaValidation is the Instagram client's known false negative: the
// response validation fails even though the upload already landed
// server-side. Retrying it would double-post.
var ErrMediaValidation = errors.New("media validation failed after upload")

// ErrMissingCredentials means the account has no usable credential material.
// More attempts cannot help.
var ErrMissingCredentials = errors.New("missing credentials")

func Classify(err error) Outcome {
	switch {
	case errors.Is(err, ErrMediaValidation):
		return TreatAsSuccess
	case errors.Is(err, ErrMissingCredentials):
		return FatalForAccount
	default:
		return Retryable
	}
}
