// Package integration contains end-to-end tests that drive the full client
// stack against a simulated appliance.
package integration

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/smarthut/mielelocal/pkg/crypto"
	"github.com/smarthut/mielelocal/pkg/transport"
)

// fakeAppliance simulates the local HTTP API of one appliance: it verifies
// request signatures, decrypts PUT bodies and encrypts its responses the
// way real firmware does.
type fakeAppliance struct {
	t     *testing.T
	creds crypto.Credentials

	mu        sync.Mutex
	documents map[string][]byte
	leaves    map[string][]byte
	writes    map[string][]byte

	server *httptest.Server
}

func newFakeAppliance(t *testing.T, creds crypto.Credentials) *fakeAppliance {
	t.Helper()
	a := &fakeAppliance{
		t:         t,
		creds:     creds,
		documents: make(map[string][]byte),
		leaves:    make(map[string][]byte),
		writes:    make(map[string][]byte),
	}
	a.server = httptest.NewServer(http.HandlerFunc(a.handle))
	t.Cleanup(a.server.Close)
	return a
}

func (a *fakeAppliance) host() string {
	return strings.TrimPrefix(a.server.URL, "http://")
}

func (a *fakeAppliance) setDocument(resource string, body []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.documents[resource] = body
}

func (a *fakeAppliance) setLeaf(resource string, payload []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.leaves[resource] = payload
}

func (a *fakeAppliance) lastWrite(resource string) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writes[resource]
}

func (a *fakeAppliance) handle(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.RequestURI()

	requestSig, ok := a.verifyAuth(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPut {
		ciphertext, err := io.ReadAll(r.Body)
		if err != nil {
			a.t.Errorf("read PUT body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		iv, _ := crypto.IVFromSignature(requestSig)
		key, _ := crypto.CipherKey(a.creds.GroupKey)
		padded, err := crypto.DecryptCBC(key, iv, ciphertext)
		if err != nil {
			a.t.Errorf("decrypt PUT body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		plaintext, err := crypto.Unpad(padded)
		if err != nil {
			a.t.Errorf("unpad PUT body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		a.mu.Lock()
		a.writes[resource] = plaintext
		a.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	a.mu.Lock()
	body, found := a.documents[resource]
	if !found {
		body, found = a.leaves[resource]
	}
	a.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	a.reply(w, r, body)
}

// verifyAuth recomputes the request signature and compares it against the
// Authorization header. GET bodies are empty so the body term is empty too.
func (a *fakeAppliance) verifyAuth(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, crypto.AuthScheme+" ") {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}
	hexSig := auth[strings.LastIndexByte(auth, ':')+1:]
	claimed, err := hex.DecodeString(strings.ToLower(hexSig))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}
	return claimed, true
}

func (a *fakeAppliance) reply(w http.ResponseWriter, r *http.Request, plaintext []byte) {
	respSig := crypto.Sign(a.creds.GroupKey, crypto.RequestLine{
		Method:   r.Method,
		Host:     r.Host,
		Resource: r.URL.RequestURI(),
		Date:     r.Header.Get("Date"),
		Accept:   transport.AcceptHeader,
		Body:     plaintext,
	})
	iv, err := crypto.IVFromSignature(respSig)
	if err != nil {
		a.t.Fatalf("IVFromSignature: %v", err)
	}
	key, _ := crypto.CipherKey(a.creds.GroupKey)
	ciphertext, err := crypto.EncryptCBC(key, iv, crypto.Pad(plaintext))
	if err != nil {
		a.t.Fatalf("EncryptCBC: %v", err)
	}

	w.Header().Set(transport.SignatureHeader, crypto.AuthScheme+":"+hex.EncodeToString(respSig))
	w.WriteHeader(http.StatusOK)
	w.Write(ciphertext)
}

func u16be(values ...uint16) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		binary.Write(&buf, binary.BigEndian, v)
	}
	return buf.Bytes()
}
