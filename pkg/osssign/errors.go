package osssign

import (
	"errors"
	"fmt"
)

// Configuration errors, reported before any cryptographic work begins
var (
	// ErrMissingAccessKeyID is returned when the access key id is empty
	ErrMissingAccessKeyID = errors.New("osssign: access key id is required")

	// ErrMissingAccessKeySecret is returned when the access key secret is empty
	ErrMissingAccessKeySecret = errors.New("osssign: access key secret is required")

	// ErrMissingRegion is returned when no region was supplied and none could
	// be inferred from the endpoint host
	ErrMissingRegion = errors.New("osssign: region is required")

	// ErrObjectRequiresBucket is returned when an object key is supplied
	// without a bucket name
	ErrObjectRequiresBucket = errors.New("osssign: object key requires a bucket")

	// ErrNoEndpoint is returned when neither an explicit endpoint nor a
	// bucket/region pair is available to build the request URL
	ErrNoEndpoint = errors.New("osssign: no endpoint and no bucket/region to construct one")
)

// ErrHashProviderUnavailable is returned when the signer has no hashing
// primitive to work with.
var ErrHashProviderUnavailable = errors.New("osssign: no hash provider available")

// ErrInvalidUTF8 indicates a value that cannot be percent-encoded because it
// is not valid UTF-8. It is always wrapped in an *EncodingError naming the
// offending field.
var ErrInvalidUTF8 = errors.New("osssign: value is not valid UTF-8")

// IsConfigurationError returns true if the error is a request validation
// error rather than a signing failure. Configuration errors are never
// retriable with the same input.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrMissingAccessKeyID) ||
		errors.Is(err, ErrMissingAccessKeySecret) ||
		errors.Is(err, ErrMissingRegion) ||
		errors.Is(err, ErrObjectRequiresBucket) ||
		errors.Is(err, ErrNoEndpoint)
}

// EncodingError represents a failure to percent-encode a request component
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("osssign: cannot percent-encode %s: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
