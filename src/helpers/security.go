package helpers

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// RedactURI hides the credentials of a connection string so it can be logged.
// Everything up to the last '@' before the path is dropped, so a raw '?' or '@'
// inside the password is hidden too.
func RedactURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri
	}
	rest := uri[schemeEnd+3:]

	first := strings.Index(rest, "@")
	if first < 0 {
		return uri
	}

	authority := rest
	if slash := strings.Index(rest[first:], "/"); slash >= 0 {
		authority = rest[:first+slash]
	}
	at := strings.LastIndex(authority, "@")

	return uri[:schemeEnd+3] + "***@" + rest[at+1:]
}

// FingerprintURI returns a short stable digest of a connection string.
// Two runs against the same server and credentials share a fingerprint.
func FingerprintURI(uri string) string {
	sum := blake2b.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:6])
}
