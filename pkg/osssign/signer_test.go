package osssign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// newFixedSigner returns a signer pinned to 2024-01-01T00:00:00Z.
func newFixedSigner(t *testing.T, opts ...Option) *Signer {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))}, opts...)
	signer, err := New(opts...)
	require.NoError(t, err)
	return signer
}

func baseRequest() PresignRequest {
	return PresignRequest{
		AccessKeyID:     "AKID",
		AccessKeySecret: "SECRET",
		Region:          "oss-cn-hangzhou",
		Bucket:          "my-bucket",
		Object:          "a/b.txt",
		Method:          "GET",
		Expires:         60,
	}
}

func TestPresign_FixedInstant(t *testing.T) {
	signer := newFixedSigner(t)

	signed, err := signer.Presign(baseRequest())
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)

	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "my-bucket.cn-hangzhou.aliyuncs.com", u.Host)
	assert.Equal(t, "/a/b.txt", u.Path)

	q := u.Query()
	assert.Equal(t, "OSS4-HMAC-SHA256", q.Get("x-oss-signature-version"))
	assert.Equal(t, "AKID/20240101/cn-hangzhou/oss/aliyun_v4_request", q.Get("x-oss-credential"))
	assert.Equal(t, "20240101T000000Z", q.Get("x-oss-date"))
	assert.Equal(t, "60", q.Get("x-oss-expires"))
	assert.Regexp(t, "^[0-9a-f]{64}$", q.Get("x-oss-signature"))
	assert.Empty(t, q.Get("x-oss-additional-headers"))
	assert.Empty(t, q.Get("x-oss-security-token"))
}

// TestPresign_SignatureVector recomputes the expected signature from the
// documented canonical layout using crypto/hmac directly, independently of
// the signer's own code paths.
func TestPresign_SignatureVector(t *testing.T) {
	signer := newFixedSigner(t)

	signed, err := signer.Presign(baseRequest())
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)

	canonical := strings.Join([]string{
		"GET",
		"/my-bucket/a/b.txt",
		"x-oss-credential=AKID%2F20240101%2Fcn-hangzhou%2Foss%2Faliyun_v4_request" +
			"&x-oss-date=20240101T000000Z&x-oss-expires=60&x-oss-signature-version=OSS4-HMAC-SHA256",
		"",
		"",
		"UNSIGNED-PAYLOAD",
	}, "\n")

	digest := sha256.Sum256([]byte(canonical))
	stringToSign := strings.Join([]string{
		"OSS4-HMAC-SHA256",
		"20240101T000000Z",
		"20240101/cn-hangzhou/oss/aliyun_v4_request",
		hex.EncodeToString(digest[:]),
	}, "\n")

	mac := func(key, data []byte) []byte {
		m := hmac.New(sha256.New, key)
		m.Write(data)
		return m.Sum(nil)
	}
	key := mac([]byte("aliyun_v4SECRET"), []byte("20240101"))
	key = mac(key, []byte("cn-hangzhou"))
	key = mac(key, []byte("oss"))
	key = mac(key, []byte("aliyun_v4_request"))

	expected := hex.EncodeToString(mac(key, []byte(stringToSign)))
	assert.Equal(t, expected, u.Query().Get("x-oss-signature"))
}

func TestPresign_DeterministicAtFixedInstant(t *testing.T) {
	signer := newFixedSigner(t)

	first, err := signer.Presign(baseRequest())
	require.NoError(t, err)
	second, err := signer.Presign(baseRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPresign_BucketLevel(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.Object = ""
	signed, err := signer.Presign(req)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "my-bucket.cn-hangzhou.aliyuncs.com", u.Host)
	assert.Empty(t, u.Path)
	assert.NotEmpty(t, u.Query().Get("x-oss-signature"))
}

func TestPresign_ConfigurationErrors(t *testing.T) {
	signer := newFixedSigner(t)

	t.Run("MissingAccessKeyID", func(t *testing.T) {
		req := baseRequest()
		req.AccessKeyID = ""
		_, err := signer.Presign(req)
		require.ErrorIs(t, err, ErrMissingAccessKeyID)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("MissingAccessKeySecret", func(t *testing.T) {
		req := baseRequest()
		req.AccessKeySecret = ""
		_, err := signer.Presign(req)
		require.ErrorIs(t, err, ErrMissingAccessKeySecret)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("ObjectWithoutBucket", func(t *testing.T) {
		req := baseRequest()
		req.Bucket = ""
		_, err := signer.Presign(req)
		require.ErrorIs(t, err, ErrObjectRequiresBucket)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("MissingRegion", func(t *testing.T) {
		req := baseRequest()
		req.Region = ""
		_, err := signer.Presign(req)
		require.ErrorIs(t, err, ErrMissingRegion)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("NoEndpointNoBucket", func(t *testing.T) {
		req := baseRequest()
		req.Bucket = ""
		req.Object = ""
		_, err := signer.Presign(req)
		require.ErrorIs(t, err, ErrNoEndpoint)
		assert.True(t, IsConfigurationError(err))
	})
}

func TestPresign_EndpointOverride(t *testing.T) {
	signer := newFixedSigner(t)

	t.Run("TrailingSlashStripped", func(t *testing.T) {
		req := baseRequest()
		req.Endpoint = "https://files.example.com/"
		signed, err := signer.Presign(req)
		require.NoError(t, err)

		u, err := url.Parse(signed)
		require.NoError(t, err)
		assert.Equal(t, "files.example.com", u.Host)
		assert.Equal(t, "/a/b.txt", u.Path)
	})

	t.Run("BucketLevelWithoutBucket", func(t *testing.T) {
		// An explicit endpoint makes bucket optional for bucket-level calls.
		req := baseRequest()
		req.Endpoint = "https://files.example.com"
		req.Bucket = ""
		req.Object = ""
		_, err := signer.Presign(req)
		require.NoError(t, err)
	})

	t.Run("RegionInferredFromEndpoint", func(t *testing.T) {
		req := baseRequest()
		req.Region = ""
		req.Endpoint = "https://my-bucket.oss-cn-beijing.aliyuncs.com"
		signed, err := signer.Presign(req)
		require.NoError(t, err)

		u, err := url.Parse(signed)
		require.NoError(t, err)
		assert.Equal(t, "AKID/20240101/cn-beijing/oss/aliyun_v4_request", u.Query().Get("x-oss-credential"))
	})
}

func TestPresign_SecurityToken(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.SecurityToken = "STS-TOKEN"
	signed, err := signer.Presign(req)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "STS-TOKEN", u.Query().Get("x-oss-security-token"))

	// The token participates in the canonical query, so its presence must
	// change the signature.
	plain, err := signer.Presign(baseRequest())
	require.NoError(t, err)
	pu, err := url.Parse(plain)
	require.NoError(t, err)
	assert.NotEqual(t, pu.Query().Get("x-oss-signature"), u.Query().Get("x-oss-signature"))
}

func TestPresign_HeaderCaseInsensitivity(t *testing.T) {
	signer := newFixedSigner(t)

	upper := baseRequest()
	upper.Headers = map[string]string{"Content-Type": "text/plain"}
	lower := baseRequest()
	lower.Headers = map[string]string{"content-type": "text/plain"}

	u1, err := signer.Presign(upper)
	require.NoError(t, err)
	u2, err := signer.Presign(lower)
	require.NoError(t, err)

	assert.Equal(t, u1, u2)
}

func TestPresign_AdditionalHeaderFiltering(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.AdditionalHeaders = []string{"Content-Type", "X-Oss-Foo", "X-Custom-1"}
	signed, err := signer.Presign(req)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "x-custom-1", u.Query().Get("x-oss-additional-headers"))
}

func TestPresign_DefaultsApplied(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.Method = ""
	req.Expires = 0
	signed, err := signer.Presign(req)
	require.NoError(t, err)

	explicit, err := signer.Presign(baseRequest())
	require.NoError(t, err)
	assert.Equal(t, explicit, signed)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "60", u.Query().Get("x-oss-expires"))
}

func TestPresign_CustomDefaultExpires(t *testing.T) {
	signer := newFixedSigner(t, WithDefaultExpires(900))

	req := baseRequest()
	req.Expires = 0
	signed, err := signer.Presign(req)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get("x-oss-expires"))
}

func TestPresign_CallerQueriesPreserved(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.Queries = map[string]string{
		"versionId":             "abc123",
		"response-content-type": "application/json",
	}
	signed, err := signer.Presign(req)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "abc123", u.Query().Get("versionId"))
	assert.Equal(t, "application/json", u.Query().Get("response-content-type"))
}

func TestPresign_ObjectKeyEncoding(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.Object = "a b/c!d'e(f)g*h.txt"
	signed, err := signer.Presign(req)
	require.NoError(t, err)

	// Slashes survive, everything else outside the unreserved set is
	// escaped with uppercase hex.
	assert.Contains(t, signed, "/a%20b/c%21d%27e%28f%29g%2Ah.txt?")
}

func TestPresign_InputNotMutated(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.Headers = map[string]string{"Content-Type": "text/plain"}
	req.Queries = map[string]string{"versionId": "v1"}

	_, err := signer.Presign(req)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Content-Type": "text/plain"}, req.Headers)
	assert.Equal(t, map[string]string{"versionId": "v1"}, req.Queries)
}

func TestSign_AuthorizationHeader(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.Headers = map[string]string{"Content-Type": "text/plain"}
	req.AdditionalHeaders = []string{"X-Custom-1"}

	signed, err := signer.Sign(req)
	require.NoError(t, err)

	auth := signed["Authorization"]
	assert.True(t, strings.HasPrefix(auth,
		"OSS4-HMAC-SHA256 Credential=AKID/20240101/cn-hangzhou/oss/aliyun_v4_request,"),
		"unexpected authorization value %q", auth)
	assert.Contains(t, auth, ",AdditionalHeaders=x-custom-1,")
	assert.Regexp(t, "Signature=[0-9a-f]{64}$", auth)

	assert.Equal(t, "20240101T000000Z", signed["x-oss-date"])
	assert.Equal(t, "UNSIGNED-PAYLOAD", signed["x-oss-content-sha256"])
	assert.Equal(t, "text/plain", signed["Content-Type"])

	// Caller's header map stays untouched.
	assert.Equal(t, map[string]string{"Content-Type": "text/plain"}, req.Headers)
}

func TestSign_SecurityTokenHeader(t *testing.T) {
	signer := newFixedSigner(t)

	req := baseRequest()
	req.SecurityToken = "STS-TOKEN"
	signed, err := signer.Sign(req)
	require.NoError(t, err)

	assert.Equal(t, "STS-TOKEN", signed["x-oss-security-token"])
}

func TestNew_NilHashProvider(t *testing.T) {
	_, err := New(WithHashProvider(nil))
	require.ErrorIs(t, err, ErrHashProviderUnavailable)
}
