package crypto

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalizeQuery implements prepareKeyValueDictionaryForDataSigning:
// sort a string→string map by key, percent-encode both key and value
// per RFC3986, join as "k=v&k=v", and return the UTF-8 bytes. An empty
// map canonicalizes to an empty byte slice. Used to build the signed
// body of GET requests, which carry no request body of their own.
func CanonicalizeQuery(params map[string]string) []byte {
	if len(params) == 0 {
		return []byte{}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, encodeRFC3986(k)+"="+encodeRFC3986(params[k]))
	}
	return []byte(strings.Join(pairs, "&"))
}

// encodeRFC3986 percent-encodes s the way RFC3986 requires.
// url.QueryEscape already leaves the unreserved characters (letters,
// digits, "-", ".", "_", "~") as they are; it differs only in encoding
// space as "+", which is rewritten here to "%20".
func encodeRFC3986(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return escaped
}
