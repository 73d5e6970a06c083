// Request signing for the Miele local HTTP API.
//
// Every request carries an Authorization header derived from an HMAC-SHA256
// over a canonical representation of the request. The same digest doubles as
// the source of the AES-CBC initialization vector, so a fresh IV is obtained
// per request without a separate exchange.

package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// SignatureSize is the size of an HMAC-SHA256 request signature in bytes.
	SignatureSize = sha256.Size

	// IVSize is the size of the AES-CBC initialization vector in bytes.
	IVSize = 16

	// AuthScheme is the scheme tag used in the Authorization header.
	AuthScheme = "MieleH256"
)

// RequestLine carries everything that feeds into a request signature.
// The body is the plaintext body before padding and encryption; leave it
// empty for GET requests.
type RequestLine struct {
	Method      string
	Host        string
	Resource    string
	Date        string
	ContentType string
	Accept      string
	Body        []byte
}

// CanonicalString renders the signing input exactly as the appliance
// computes it: METHOD, host+resource, Content-Type (may be empty), Accept,
// Date, each newline-terminated, followed by the raw plaintext body.
func CanonicalString(r RequestLine) []byte {
	var b strings.Builder
	b.WriteString(strings.ToUpper(r.Method))
	b.WriteByte('\n')
	b.WriteString(r.Host)
	b.WriteString(r.Resource)
	b.WriteByte('\n')
	b.WriteString(r.ContentType)
	b.WriteByte('\n')
	b.WriteString(r.Accept)
	b.WriteByte('\n')
	b.WriteString(r.Date)
	b.WriteByte('\n')

	out := make([]byte, 0, b.Len()+len(r.Body))
	out = append(out, b.String()...)
	out = append(out, r.Body...)
	return out
}

// Sign computes the HMAC-SHA256 signature of a request with the GroupKey.
// Returns the raw 32-byte digest.
func Sign(groupKey []byte, r RequestLine) []byte {
	h := hmac.New(sha256.New, groupKey)
	h.Write(CanonicalString(r))
	return h.Sum(nil)
}

// AuthorizationHeader renders the Authorization header value for a signed
// request: the scheme tag followed by the uppercase hex GroupID and the
// uppercase hex digest, colon-separated.
func AuthorizationHeader(groupID, signature []byte) string {
	return AuthScheme + " " +
		strings.ToUpper(hex.EncodeToString(groupID)) + ":" +
		strings.ToUpper(hex.EncodeToString(signature))
}

// IVFromSignature derives the AES-CBC initialization vector from a request
// or response signature. The IV is the first 16 bytes of the raw digest,
// making it a pure function of the signed content.
func IVFromSignature(signature []byte) ([]byte, error) {
	if len(signature) < IVSize {
		return nil, ErrShortSignature
	}
	iv := make([]byte, IVSize)
	copy(iv, signature[:IVSize])
	return iv, nil
}

// SignatureEqual compares two signatures in constant time.
func SignatureEqual(a, b []byte) bool {
	return hmac.Equal(a, b)
}
