package osssign

import "time"

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithHashProvider injects the cryptographic primitives the signer uses.
// Defaults to the standard library implementation.
func WithHashProvider(p HashProvider) Option {
	return func(s *Signer) {
		s.hash = p
	}
}

// WithClock injects the wall-clock source. The signer reads it exactly once
// per call, so a fixed clock makes signing a pure function of its inputs.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithDefaultExpires sets the validity window in seconds applied when a
// request does not specify one. Default is 60 seconds.
func WithDefaultExpires(seconds int64) Option {
	return func(s *Signer) {
		s.defaultExpires = seconds
	}
}
