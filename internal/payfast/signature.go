package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// SignatureField is the reserved key that carries the digest itself.
const SignatureField = "signature"

const upperHex = "0123456789ABCDEF"

// Encode escapes v the way the gateway's reference signer does:
// encodeURIComponent semantics, space as '+', uppercase hex escapes.
func Encode(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case isUnreserved(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// Canonical builds the string that gets digested. Empty values and the
// signature key are skipped; keys are sorted bytewise.
func Canonical(fields map[string]string, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" || k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		pairs = append(pairs, k+"="+Encode(fields[k]))
	}
	if passphrase != "" {
		pairs = append(pairs, "passphrase="+Encode(passphrase))
	}
	return strings.Join(pairs, "&")
}

// Sign returns the lowercase hex MD5 of the canonical form of fields.
func Sign(fields map[string]string, passphrase string) string {
	sum := md5.Sum([]byte(Canonical(fields, passphrase)))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature over fields and compares it with claimed.
func Verify(fields map[string]string, claimed, passphrase string) bool {
	if claimed == "" {
		return false
	}
	expected := Sign(fields, passphrase)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(claimed)) == 1
}
