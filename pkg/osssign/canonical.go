package osssign

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether c must be percent-encoded. Only the RFC 3986
// unreserved set survives; in particular space and ! ' ( ) * are escaped,
// which plain web-style encoders leave alone.
func shouldEscape(c byte) bool {
	if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '_', '.', '~':
		return false
	}
	return true
}

// escape percent-encodes s byte-wise over its UTF-8 representation, with
// uppercase hex and no exceptions for slashes.
func escape(s string) string {
	var hexCount int
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			hexCount++
		}
	}
	if hexCount == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*hexCount)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// escapeField is escape with UTF-8 validation, reporting failures against the
// named request field.
func escapeField(field, s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", &EncodingError{Field: field, Err: ErrInvalidUTF8}
	}
	return escape(s), nil
}

// escapePath encodes a resource path: the whole string is escaped under the
// single-segment rule, then encoded slashes are expanded back so interior
// path separators stay literal.
func escapePath(field, s string) (string, error) {
	e, err := escapeField(field, s)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(e, "%2F", "/"), nil
}

// canonicalURI builds the percent-encoded absolute path that participates in
// signing: "/" + bucket + "/" + object. A key containing slashes is a single
// logical segment; its separators are preserved, everything else is escaped.
func canonicalURI(bucket, object string) (string, error) {
	p := "/"
	if bucket != "" {
		p += bucket + "/"
	}
	if object != "" {
		p += object
	}
	return escapePath("resource path", p)
}

// canonicalQuery renders the query map sorted by raw key. An empty value
// emits the bare key, anything else emits key=value, both percent-encoded.
func canonicalQuery(queries map[string]string) (string, error) {
	keys := make([]string, 0, len(queries))
	for k := range queries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		ek, err := escapeField(fmt.Sprintf("query parameter %q", k), k)
		if err != nil {
			return "", err
		}
		v := queries[k]
		if v == "" {
			parts = append(parts, ek)
			continue
		}
		ev, err := escapeField(fmt.Sprintf("query parameter %q value", k), v)
		if err != nil {
			return "", err
		}
		parts = append(parts, ek+"="+ev)
	}
	return strings.Join(parts, "&"), nil
}

// canonicalHeaders renders the signed header block: content-type, content-md5
// and x-oss-* headers present in the map, unioned with the normalized
// additional names, sorted, one "name:value\n" line each. Values are trimmed
// of surrounding whitespace only.
func canonicalHeaders(headers map[string]string, additional []string) string {
	lower := make(map[string]string, len(headers))
	for k, v := range headers {
		lower[strings.ToLower(k)] = v
	}

	include := make(map[string]struct{}, len(lower)+len(additional))
	for k := range lower {
		if k == headerContentType || k == headerContentMD5 || strings.HasPrefix(k, ossHeaderPrefix) {
			include[k] = struct{}{}
		}
	}
	for _, k := range additional {
		include[k] = struct{}{}
	}

	names := make([]string, 0, len(include))
	for k := range include {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(lower[k]))
		b.WriteByte('\n')
	}
	return b.String()
}

// payloadHash returns the caller-supplied content hash when present, or the
// unsigned-payload sentinel. Presigned GET URLs are expected to use the
// sentinel.
func payloadHash(headers map[string]string) string {
	for k, v := range headers {
		if strings.ToLower(k) == headerContentSHA256 {
			return v
		}
	}
	return unsignedPayload
}

// canonicalRequest assembles the six signing components into the exact byte
// string both signer and service must agree on.
func canonicalRequest(in signingInput, queries map[string]string) (string, error) {
	uri, err := canonicalURI(in.bucket, in.object)
	if err != nil {
		return "", err
	}
	query, err := canonicalQuery(queries)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		in.method,
		uri,
		query,
		canonicalHeaders(in.headers, in.additional),
		strings.Join(in.additional, ";"),
		payloadHash(in.headers),
	}, "\n"), nil
}
