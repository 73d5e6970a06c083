// Package transport implements the signed and encrypted HTTP exchange used
// by Miele appliances on the local network.
//
// Each request is authenticated with an HMAC-SHA256 signature over a
// canonical request string and, when a body is present, encrypted with
// AES-CBC. The initialization vector is derived from the request's own
// signature, so every call is stateless and safe to retry after
// cancellation.
package transport

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pion/logging"

	"github.com/smarthut/mielelocal/pkg/crypto"
)

// HTTP header constants shared by all requests.
const (
	// AcceptHeader is the Accept value expected by the appliance firmware.
	AcceptHeader = "application/vnd.miele.v1+json"

	// ContentTypeEncrypted is the Content-Type for encrypted request bodies.
	ContentTypeEncrypted = "application/vnd.miele.v1+json; charset=utf-8"

	// UserAgent mirrors the vendor mobile application; some firmware
	// versions reject unknown agents.
	UserAgent = "Miele@mobile 2.3.3 Android"

	// SignatureHeader carries the server's signature on responses.
	SignatureHeader = "X-Signature"
)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 5 * time.Second

// Config configures a Client.
type Config struct {
	// Host is the appliance address (IP or hostname), without scheme.
	// Required.
	Host string

	// Credentials is the GroupID/GroupKey pair from commissioning.
	// Required.
	Credentials crypto.Credentials

	// TLS selects https instead of http. Most appliances speak plain HTTP
	// on the LAN.
	TLS bool

	// Timeout is the per-request timeout (default: DefaultTimeout).
	Timeout time.Duration

	// HTTPClient is an optional pre-configured HTTP client for testing.
	HTTPClient *http.Client

	// Now is an optional clock override for testing. Defaults to time.Now.
	Now func() time.Time

	// LoggerFactory creates the client logger.
	// If nil, a default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return ErrInvalidHost
	}
	return c.Credentials.Validate()
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.LoggerFactory == nil {
		c.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
}

// Client performs signed, encrypted exchanges with a single appliance.
// It holds no per-request state; methods are safe for concurrent use.
type Client struct {
	host      string
	scheme    string
	creds     crypto.Credentials
	cipherKey []byte
	http      *http.Client
	now       func() time.Time
	log       logging.LeveledLogger
}

// NewClient creates a transport client for one appliance.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	cipherKey, err := crypto.CipherKey(config.Credentials.GroupKey)
	if err != nil {
		return nil, err
	}

	scheme := "http"
	if config.TLS {
		scheme = "https"
	}

	return &Client{
		host:      config.Host,
		scheme:    scheme,
		creds:     config.Credentials,
		cipherKey: cipherKey,
		http:      config.HTTPClient,
		now:       config.Now,
		log:       config.LoggerFactory.NewLogger("transport"),
	}, nil
}

// Host returns the configured appliance host.
func (c *Client) Host() string {
	return c.host
}

// Get performs a signed GET and returns the decrypted response body.
// The result is nil for 204 responses.
func (c *Client) Get(ctx context.Context, resource string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, resource, nil)
}

// Put performs a signed PUT with an encrypted body and returns the
// decrypted response body, if any.
func (c *Client) Put(ctx context.Context, resource string, body []byte) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, resource, body)
}

// Do performs one authenticated exchange. The body, when non-empty, is the
// plaintext payload; it is padded and encrypted before transmission. The
// returned bytes are the decrypted response plaintext, nil when the
// appliance answered 204 or with an empty body.
func (c *Client) Do(ctx context.Context, method, resource string, body []byte) ([]byte, error) {
	date := c.now().UTC().Format(http.TimeFormat)

	contentType := ""
	if len(body) > 0 {
		contentType = ContentTypeEncrypted
	}

	line := crypto.RequestLine{
		Method:      method,
		Host:        c.host,
		Resource:    resource,
		Date:        date,
		ContentType: contentType,
		Accept:      AcceptHeader,
		Body:        body,
	}
	signature := crypto.Sign(c.creds.GroupKey, line)

	var reqBody io.Reader
	if len(body) > 0 {
		iv, err := crypto.IVFromSignature(signature)
		if err != nil {
			return nil, err
		}
		ciphertext, err := crypto.EncryptCBC(c.cipherKey, iv, crypto.Pad(body))
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(ciphertext)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.scheme+"://"+c.host+resource, reqBody)
	if err != nil {
		return nil, &NetworkError{Op: "build request", Err: err}
	}
	req.Host = c.host
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Date", date)
	req.Header.Set("Authorization", crypto.AuthorizationHeader(c.creds.GroupID, signature))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.Tracef("%s %s", method, resource)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "send", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusOK:
		// fall through to body handling
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	default:
		return nil, &StatusError{Code: resp.StatusCode, Resource: resource}
	}

	ciphertext, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read body", Err: err}
	}
	if len(ciphertext) == 0 {
		return nil, nil
	}

	return c.decryptResponse(resp.Header.Get(SignatureHeader), ciphertext)
}

// decryptResponse decrypts a response body using the IV derived from the
// server's signature header, then strips the padding.
func (c *Client) decryptResponse(sigHeader string, ciphertext []byte) ([]byte, error) {
	if sigHeader == "" {
		return nil, ErrMissingSignature
	}

	signature, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}
	iv, err := crypto.IVFromSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	padded, err := crypto.DecryptCBC(c.cipherKey, iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	plaintext, err := crypto.Unpad(padded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return plaintext, nil
}

// parseSignatureHeader extracts the raw signature bytes from an
// X-Signature value of the form "MieleH256:<hex>". Firmware variants omit
// the scheme tag, so a bare hex digest is accepted too.
func parseSignatureHeader(value string) ([]byte, error) {
	hexPart := value
	if i := strings.LastIndexByte(value, ':'); i >= 0 {
		hexPart = value[i+1:]
	}
	signature, err := hex.DecodeString(strings.TrimSpace(hexPart))
	if err != nil {
		return nil, fmt.Errorf("%w: bad signature header", ErrMalformedResponse)
	}
	return signature, nil
}
