package osssign

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HashProvider supplies the two cryptographic primitives the signer depends
// on. The default implementation uses the standard library; tests or hosts
// with hardware-backed crypto can inject their own.
type HashProvider interface {
	// Sum256 returns the SHA-256 digest of data
	Sum256(data []byte) []byte

	// HMACSHA256 returns the HMAC-SHA256 of data under key
	HMACSHA256(key, data []byte) []byte
}

// DefaultHashProvider returns the standard library backed HashProvider.
func DefaultHashProvider() HashProvider {
	return cryptoProvider{}
}

type cryptoProvider struct{}

func (cryptoProvider) Sum256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func (cryptoProvider) HMACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
