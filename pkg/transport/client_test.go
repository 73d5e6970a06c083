package transport

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smarthut/mielelocal/pkg/crypto"
)

var testCreds = crypto.Credentials{
	GroupID:  mustHex("aabbccdd"),
	GroupKey: make([]byte, 32),
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// roundTripperFunc adapts a function to http.RoundTripper so tests can
// intercept requests without a listener.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func fixedClock() time.Time {
	// Matches the reference vector date "Fri, 01 Jan 2021 00:00:00 GMT".
	return time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func TestReferenceAuthorizationHeader(t *testing.T) {
	const wantAuth = "MieleH256 AABBCCDD:9C318077B40DCBD5562DE0B7941B1E1941A9EC7C65B1048D8BF7F352A2705B3E"

	var captured *http.Request
	httpClient := &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			captured = r
			return &http.Response{
				StatusCode: http.StatusNoContent,
				Body:       io.NopCloser(bytes.NewReader(nil)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	client, err := NewClient(Config{
		Host:        "192.168.1.50",
		Credentials: testCreds,
		HTTPClient:  httpClient,
		Now:         fixedClock,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	body, err := client.Get(context.Background(), "/Devices/000123456789/State")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if body != nil {
		t.Errorf("204 must yield an empty result, got %d bytes", len(body))
	}

	if got := captured.Header.Get("Authorization"); got != wantAuth {
		t.Errorf("Authorization mismatch\ngot:  %s\nwant: %s", got, wantAuth)
	}
	if got := captured.Header.Get("Date"); got != "Fri, 01 Jan 2021 00:00:00 GMT" {
		t.Errorf("unexpected Date header %q", got)
	}
	if got := captured.Header.Get("Accept"); got != AcceptHeader {
		t.Errorf("unexpected Accept header %q", got)
	}
	if captured.Header.Get("Content-Type") != "" {
		t.Error("GET with empty body must not set Content-Type")
	}
}

// newEncryptedServer returns a test server that answers GET requests with
// the given plaintext, encrypted the way an appliance does.
func newEncryptedServer(t *testing.T, plaintext []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "MieleH256 ") {
			t.Errorf("unexpected Authorization header %q", auth)
		}

		// The appliance signs its reply with the shared GroupKey; the
		// client derives the decryption IV from that signature.
		respSig := crypto.Sign(testCreds.GroupKey, crypto.RequestLine{
			Method:   r.Method,
			Host:     r.Host,
			Resource: r.URL.RequestURI(),
			Date:     r.Header.Get("Date"),
			Accept:   AcceptHeader,
			Body:     plaintext,
		})
		iv, err := crypto.IVFromSignature(respSig)
		if err != nil {
			t.Fatalf("IVFromSignature: %v", err)
		}
		key, _ := crypto.CipherKey(testCreds.GroupKey)
		ciphertext, err := crypto.EncryptCBC(key, iv, crypto.Pad(plaintext))
		if err != nil {
			t.Fatalf("EncryptCBC: %v", err)
		}

		w.Header().Set(SignatureHeader, "MieleH256:"+hex.EncodeToString(respSig))
		w.WriteHeader(http.StatusOK)
		w.Write(ciphertext)
	}))
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Host:        strings.TrimPrefix(srv.URL, "http://"),
		Credentials: testCreds,
		HTTPClient:  srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGetDecryptsResponse(t *testing.T) {
	plaintext := []byte(`{"status":{"value_raw":5}}`)
	srv := newEncryptedServer(t, plaintext)
	defer srv.Close()

	got, err := newTestClient(t, srv).Get(context.Background(), "/Devices/abc/State")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("plaintext mismatch\ngot:  %q\nwant: %q", got, plaintext)
	}
}

func TestPutEncryptsBody(t *testing.T) {
	plaintext := []byte{0x00, 0x0A, 0x00, 0x32}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != ContentTypeEncrypted {
			t.Errorf("unexpected Content-Type %q", got)
		}

		ciphertext, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if len(ciphertext)%crypto.BlockSize != 0 {
			t.Fatalf("request body not block aligned: %d bytes", len(ciphertext))
		}
		if bytes.Contains(ciphertext, plaintext) {
			t.Error("request body contains plaintext")
		}

		// Recompute the request signature to recover the IV.
		auth := r.Header.Get("Authorization")
		hexSig := auth[strings.LastIndexByte(auth, ':')+1:]
		sig := mustHex(strings.ToLower(hexSig))
		iv, _ := crypto.IVFromSignature(sig)
		key, _ := crypto.CipherKey(testCreds.GroupKey)
		padded, err := crypto.DecryptCBC(key, iv, ciphertext)
		if err != nil {
			t.Fatalf("DecryptCBC: %v", err)
		}
		got, err := crypto.Unpad(padded)
		if err != nil {
			t.Fatalf("Unpad: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("decrypted request mismatch: got %x want %x", got, plaintext)
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv).Put(context.Background(), "/Devices/abc/DOP2/2/105?idx1=10&idx2=0", plaintext)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if resp != nil {
		t.Errorf("expected empty response, got %d bytes", len(resp))
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized_401",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnauthorized) {
					t.Errorf("expected ErrUnauthorized, got %v", err)
				}
			},
		},
		{
			name:   "forbidden_403",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnauthorized) {
					t.Errorf("expected ErrUnauthorized, got %v", err)
				}
			},
		},
		{
			name:   "not_found_404",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != http.StatusNotFound {
					t.Errorf("expected 404 StatusError, got %v", err)
				}
				if !IsNotFound(err) {
					t.Error("IsNotFound must report true for 404")
				}
				if IsTransient(err) {
					t.Error("404 must not be transient")
				}
			},
		},
		{
			name:   "server_error_500",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
					t.Errorf("expected 500 StatusError, got %v", err)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).Get(context.Background(), "/x")
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)
		})
	}
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, srv)
	srv.Close() // force connection refused

	_, err := client.Get(context.Background(), "/x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("expected transient network error, got %v", err)
	}
	if IsNotFound(err) {
		t.Error("network failure must not look like not-found")
	}
}

func TestMalformedResponses(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "missing_signature_header",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write(make([]byte, 16))
			},
			want: ErrMissingSignature,
		},
		{
			name: "garbage_signature",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(SignatureHeader, "MieleH256:zz")
				w.WriteHeader(http.StatusOK)
				w.Write(make([]byte, 16))
			},
			want: ErrMalformedResponse,
		},
		{
			name: "unaligned_ciphertext",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(SignatureHeader, "MieleH256:"+strings.Repeat("ab", 32))
				w.WriteHeader(http.StatusOK)
				w.Write(make([]byte, 10))
			},
			want: ErrMalformedResponse,
		},
		{
			name: "bad_padding",
			handler: func(w http.ResponseWriter, r *http.Request) {
				// Valid signature header but ciphertext that decrypts to
				// garbage padding.
				w.Header().Set(SignatureHeader, "MieleH256:"+strings.Repeat("ab", 32))
				w.WriteHeader(http.StatusOK)
				w.Write(make([]byte, 16))
			},
			want: ErrMalformedResponse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := newTestClient(t, srv).Get(context.Background(), "/x")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEmptyOKBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	body, err := newTestClient(t, srv).Get(context.Background(), "/x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if body != nil {
		t.Errorf("expected nil body, got %d bytes", len(body))
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := NewClient(Config{Credentials: testCreds}); !errors.Is(err, ErrInvalidHost) {
		t.Errorf("expected ErrInvalidHost, got %v", err)
	}
	if _, err := NewClient(Config{Host: "h"}); err == nil {
		t.Error("expected credential validation error")
	}
}
