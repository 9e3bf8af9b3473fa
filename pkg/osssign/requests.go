package osssign

import (
	"sort"
	"strings"
)

// PresignRequest describes a single signing call. The zero value of every
// optional field means "use the default": method defaults to GET, expiry to
// the signer's default, and the maps to empty.
//
// If Object is set, Bucket must be set as well: object-level operations
// always live under a bucket. Endpoint, when supplied, overrides the default
// virtual-hosted endpoint constructed from bucket and region.
type PresignRequest struct {
	AccessKeyID     string
	AccessKeySecret string
	SecurityToken   string

	Region   string
	Bucket   string
	Object   string
	Endpoint string

	Method  string
	Expires int64 // validity window in seconds

	Headers map[string]string
	Queries map[string]string

	// AdditionalHeaders lists header names the caller wants force-included
	// in signing, beyond content-type, content-md5 and the x-oss-* headers
	// which are always signed when present.
	AdditionalHeaders []string
}

// signingInput is a PresignRequest after defaulting and validation. The
// region here is the signing region, with any leading "oss-" tag stripped.
type signingInput struct {
	accessKeyID     string
	accessKeySecret string
	securityToken   string

	region   string
	bucket   string
	object   string
	endpoint string

	method  string
	expires int64

	headers    map[string]string
	queries    map[string]string
	additional []string
}

func (r PresignRequest) normalize(defaultExpires int64) (signingInput, error) {
	var in signingInput

	if r.AccessKeyID == "" {
		return in, ErrMissingAccessKeyID
	}
	if r.AccessKeySecret == "" {
		return in, ErrMissingAccessKeySecret
	}

	region := r.Region
	if region == "" {
		region = regionFromEndpoint(r.Endpoint)
	}
	if region == "" {
		return in, ErrMissingRegion
	}
	region = strings.TrimPrefix(region, regionTagPrefix)

	if r.Object != "" && r.Bucket == "" {
		return in, ErrObjectRequiresBucket
	}
	if r.Endpoint == "" && r.Bucket == "" {
		return in, ErrNoEndpoint
	}

	method := strings.ToUpper(r.Method)
	if method == "" {
		method = defaultMethod
	}

	expires := r.Expires
	if expires <= 0 {
		expires = defaultExpires
	}

	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	queries := make(map[string]string, len(r.Queries))
	for k, v := range r.Queries {
		queries[k] = v
	}

	in = signingInput{
		accessKeyID:     r.AccessKeyID,
		accessKeySecret: r.AccessKeySecret,
		securityToken:   r.SecurityToken,
		region:          region,
		bucket:          r.Bucket,
		object:          r.Object,
		endpoint:        r.Endpoint,
		method:          method,
		expires:         expires,
		headers:         headers,
		queries:         queries,
		additional:      normalizeAdditionalHeaders(r.AdditionalHeaders),
	}
	return in, nil
}

// normalizeAdditionalHeaders lowercases and de-duplicates the caller-supplied
// header names, then drops the ones the canonicalizer already force-includes:
// content-type, content-md5 and anything under the x-oss- prefix. The result
// is sorted so it can be advertised to the server verbatim.
func normalizeAdditionalHeaders(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, name := range names {
		n := strings.ToLower(name)
		if n == "" || n == headerContentType || n == headerContentMD5 {
			continue
		}
		if strings.HasPrefix(n, ossHeaderPrefix) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// regionFromEndpoint derives the region from the first oss-* label of the
// endpoint host, e.g. "https://bucket.oss-cn-hangzhou.aliyuncs.com" yields
// "cn-hangzhou". Returns "" when the host carries no such label.
func regionFromEndpoint(endpoint string) string {
	host := endpoint
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/:?"); i >= 0 {
		host = host[:i]
	}
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, regionTagPrefix) {
			return strings.TrimPrefix(label, regionTagPrefix)
		}
	}
	return ""
}
