package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smarthut/mielelocal/pkg/crypto"
)

func testCredentials(t *testing.T) crypto.Credentials {
	t.Helper()
	creds, err := crypto.GenerateCredentials()
	if err != nil {
		t.Fatalf("GenerateCredentials: %v", err)
	}
	return creds
}

func TestRegisterSendsPlaintextCredentials(t *testing.T) {
	creds := testCredentials(t)

	var got registrationBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/Security/Commissioning/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("registration must not carry an Authorization header")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	if err := Register(context.Background(), srv.Client(), host, creds); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got.GroupID != hex.EncodeToString(creds.GroupID) {
		t.Errorf("GroupID = %q", got.GroupID)
	}
	if got.GroupKey != hex.EncodeToString(creds.GroupKey) {
		t.Errorf("GroupKey = %q", got.GroupKey)
	}
}

func TestRegisterRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	err := Register(context.Background(), srv.Client(), host, testCredentials(t))
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Errorf("expected ErrRegistrationFailed, got %v", err)
	}
}

func TestRegisterValidatesCredentials(t *testing.T) {
	err := Register(context.Background(), nil, "192.0.2.1", crypto.Credentials{})
	if err == nil {
		t.Fatal("expected validation error for empty credentials")
	}
}
