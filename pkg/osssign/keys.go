package osssign

import "strings"

// credentialScope builds the date/region/product/suffix tuple that limits the
// derived key's validity. The same string must appear in the credential query
// parameter and in the string to sign; a mismatch invalidates the signature.
func credentialScope(date, region string) string {
	return strings.Join([]string{date, region, productName, requestSuffix}, "/")
}

// signingKey narrows the long-lived secret into the per-request key:
//
//	K0 = "aliyun_v4" + secret
//	K1 = HMAC-SHA256(K0, date)
//	K2 = HMAC-SHA256(K1, region)
//	K3 = HMAC-SHA256(K2, "oss")
//	K4 = HMAC-SHA256(K3, "aliyun_v4_request")
//
// Each step keys on the previous raw output. Leaking K4 exposes only that
// day/region/product scope, never the secret.
func signingKey(h HashProvider, secret, date, region string) []byte {
	k := h.HMACSHA256([]byte(secretKeyPrefix+secret), []byte(date))
	k = h.HMACSHA256(k, []byte(region))
	k = h.HMACSHA256(k, []byte(productName))
	k = h.HMACSHA256(k, []byte(requestSuffix))
	return k
}
