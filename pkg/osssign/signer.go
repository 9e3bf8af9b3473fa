package osssign

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Service constants for the V4 query-authorization scheme.
const (
	algorithm     = "OSS4-HMAC-SHA256"
	productName   = "oss"
	requestSuffix = "aliyun_v4_request"

	secretKeyPrefix = "aliyun_v4"
	regionTagPrefix = "oss-"
	storageDomain   = "aliyuncs.com"

	unsignedPayload = "UNSIGNED-PAYLOAD"
	ossHeaderPrefix = "x-oss-"

	headerContentType   = "content-type"
	headerContentMD5    = "content-md5"
	headerContentSHA256 = "x-oss-content-sha256"
	headerDate          = "x-oss-date"
	headerAuthorization = "Authorization"

	paramAdditionalHeaders = "x-oss-additional-headers"
	paramCredential        = "x-oss-credential"
	paramDate              = "x-oss-date"
	paramExpires           = "x-oss-expires"
	paramSecurityToken     = "x-oss-security-token"
	paramSignature         = "x-oss-signature"
	paramSignatureVersion  = "x-oss-signature-version"

	dateFormat = "20060102"
	timeFormat = "20060102T150405Z"

	defaultMethod         = "GET"
	defaultExpiresSeconds = 60
)

// Signer produces presigned URLs and authorization headers for the V4
// HMAC scheme. A Signer is stateless and safe for concurrent use; every call
// reads the clock exactly once and derives everything from that instant.
type Signer struct {
	hash           HashProvider
	now            func() time.Time
	defaultExpires int64
}

// New creates a Signer with the given options.
func New(opts ...Option) (*Signer, error) {
	s := &Signer{
		hash:           DefaultHashProvider(),
		now:            time.Now,
		defaultExpires: defaultExpiresSeconds,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hash == nil {
		return nil, ErrHashProviderUnavailable
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defaultExpires <= 0 {
		s.defaultExpires = defaultExpiresSeconds
	}
	return s, nil
}

// Presign produces a time-limited URL authorizing unauthenticated access to
// a single object (or bucket-level operation when Object is empty). It either
// returns a fully signed URL or an error; there is no partial output.
func (s *Signer) Presign(req PresignRequest) (string, error) {
	in, err := req.normalize(s.defaultExpires)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	date := now.Format(dateFormat)
	timestamp := now.Format(timeFormat)
	scope := credentialScope(date, in.region)

	// Every signing parameter except the signature itself participates in
	// the canonical query, so the service can rebuild the same bytes.
	queries := make(map[string]string, len(in.queries)+6)
	for k, v := range in.queries {
		queries[k] = v
	}
	queries[paramSignatureVersion] = algorithm
	queries[paramCredential] = in.accessKeyID + "/" + scope
	queries[paramDate] = timestamp
	queries[paramExpires] = strconv.FormatInt(in.expires, 10)
	if len(in.additional) > 0 {
		queries[paramAdditionalHeaders] = strings.Join(in.additional, ";")
	}
	if in.securityToken != "" {
		queries[paramSecurityToken] = in.securityToken
	}

	signature, err := s.signature(in, queries, timestamp, date, scope)
	if err != nil {
		return "", err
	}
	queries[paramSignature] = signature

	return composeURL(in, queries)
}

// Sign computes header-based authorization for the same scheme: the returned
// map carries the caller's headers plus x-oss-date, x-oss-content-sha256,
// the security token when present, and the Authorization value. The input
// request is not modified.
func (s *Signer) Sign(req PresignRequest) (map[string]string, error) {
	in, err := req.normalize(s.defaultExpires)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := now.Format(dateFormat)
	timestamp := now.Format(timeFormat)
	scope := credentialScope(date, in.region)

	// The date, payload hash and token ride in x-oss-* headers, which the
	// canonicalizer force-includes.
	in.headers[headerDate] = timestamp
	in.headers[headerContentSHA256] = payloadHash(in.headers)
	if in.securityToken != "" {
		in.headers[paramSecurityToken] = in.securityToken
	}

	signature, err := s.signature(in, in.queries, timestamp, date, scope)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(algorithm)
	b.WriteString(" Credential=")
	b.WriteString(in.accessKeyID + "/" + scope)
	if len(in.additional) > 0 {
		b.WriteString(",AdditionalHeaders=")
		b.WriteString(strings.Join(in.additional, ";"))
	}
	b.WriteString(",Signature=")
	b.WriteString(signature)

	signed := make(map[string]string, len(in.headers)+1)
	for k, v := range in.headers {
		signed[k] = v
	}
	signed[headerAuthorization] = b.String()
	return signed, nil
}

// signature hashes the canonical request, builds the string to sign and
// applies the derived key. Output is lowercase hex, two characters per byte.
func (s *Signer) signature(in signingInput, queries map[string]string, timestamp, date, scope string) (string, error) {
	canonical, err := canonicalRequest(in, queries)
	if err != nil {
		return "", err
	}

	stringToSign := strings.Join([]string{
		algorithm,
		timestamp,
		scope,
		hex.EncodeToString(s.hash.Sum256([]byte(canonical))),
	}, "\n")

	key := signingKey(s.hash, in.accessKeySecret, date, in.region)
	return hex.EncodeToString(s.hash.HMACSHA256(key, []byte(stringToSign))), nil
}

// composeURL merges the endpoint, encoded object path and final query string.
func composeURL(in signingInput, queries map[string]string) (string, error) {
	base := strings.TrimSuffix(in.endpoint, "/")
	if base == "" {
		if in.bucket == "" || in.region == "" {
			return "", ErrNoEndpoint
		}
		base = "https://" + in.bucket + "." + in.region + "." + storageDomain
	}

	var path string
	if in.object != "" {
		p, err := escapePath("object key", "/"+in.object)
		if err != nil {
			return "", err
		}
		path = p
	}

	// Reuses the canonical encoding so the emitted URL round-trips through
	// the same rule the signature was computed over.
	query, err := canonicalQuery(queries)
	if err != nil {
		return "", err
	}

	u := base + path
	if query != "" {
		u += "?" + query
	}
	return u, nil
}
