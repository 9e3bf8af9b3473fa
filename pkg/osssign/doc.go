/*
Package osssign implements the Aliyun OSS V4 (OSS4-HMAC-SHA256) request
signing scheme, primarily for producing presigned URLs that grant
time-limited, unauthenticated access to a single object.

The algorithm is a canonical-request hashing plus scoped key derivation
scheme:

Step 1: build the canonical request
`<METHOD>\n<URI>\n<QUERY>\n<HEADERS>\n<ADDITIONAL_HEADERS>\n<PAYLOAD_HASH>`:

  - `METHOD`: HTTP method in upper case.
  - `URI`: `/<bucket>/<object>` percent-encoded with slashes preserved. The
    encoding is strict RFC 3986: everything outside the unreserved set is
    escaped, including space and the characters `! ' ( ) *`.
  - `QUERY`: all query parameters (including the x-oss-* signing parameters,
    excluding x-oss-signature) sorted by raw key, keys and values
    percent-encoded, joined with `&`. A parameter without a value emits the
    bare key.
  - `HEADERS`: one `name:value\n` line per signed header, names lowercased
    and sorted, values trimmed. content-type, content-md5 and every x-oss-*
    header present are always signed; the caller can force more in via the
    additional-headers list.
  - `ADDITIONAL_HEADERS`: the normalized additional header names, sorted and
    joined with `;`.
  - `PAYLOAD_HASH`: a caller-supplied content hash, or `UNSIGNED-PAYLOAD`
    for presigned URLs.

Step 2: string to sign is
`OSS4-HMAC-SHA256\n<TIMESTAMP>\n<SCOPE>\nhex(sha256(CANONICAL))`, where
`SCOPE` is `<YYYYMMDD>/<region>/oss/aliyun_v4_request`.

Step 3: the signing key is the HMAC-SHA256 chain
`"aliyun_v4"+secret -> date -> region -> "oss" -> "aliyun_v4_request"`, and
the signature is `hex(hmacsha256(key, stringToSign))`.

Step 4: the signature and its companion parameters are embedded as x-oss-*
query parameters (Signer.Presign) or as an Authorization header
(Signer.Sign).

Usage:

	signer, err := osssign.New()
	if err != nil {
		// no hash provider available
	}
	url, err := signer.Presign(osssign.PresignRequest{
		AccessKeyID:     "AKID",
		AccessKeySecret: "SECRET",
		Region:          "oss-cn-hangzhou",
		Bucket:          "my-bucket",
		Object:          "a/b.txt",
	})

The signer keeps no state between calls and reads the clock exactly once per
call, so with an injected clock it is a pure function of its inputs.
*/
package osssign
