// Package errs provides the error types the web handlers use to tell the
// middleware how a failure should be reported to the client.
package errs

import "errors"

// Response is the body sent to a client when a miner API call fails.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is an error whose message is safe to show the client, such as
// asking for the block before the run has mined one. Any other error is
// reported as an internal error.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted pairs an expected failure with the HTTP status to respond with.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns the Trusted error in the chain or nil.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}
