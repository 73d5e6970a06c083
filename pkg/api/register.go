package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/smarthut/mielelocal/pkg/crypto"
)

// registrationBody is the plaintext credential document sent while the
// appliance is in commissioning mode.
type registrationBody struct {
	GroupID  string `json:"GroupID"`
	GroupKey string `json:"GroupKey"`
}

// Register submits credentials to an appliance in commissioning mode. The
// request is deliberately unsigned and unencrypted: the appliance has no
// key material for this client yet.
func Register(ctx context.Context, httpClient *http.Client, host string, creds crypto.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	body, err := json.Marshal(registrationBody{
		GroupID:  hex.EncodeToString(creds.GroupID),
		GroupKey: hex.EncodeToString(creds.GroupKey),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		"http://"+host+"/Security/Commissioning/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: status %d", ErrRegistrationFailed, resp.StatusCode)
	}
	return nil
}

// Provision generates fresh credentials, registers them with the host and
// returns the first device ID the appliance reports. Meant for first-time
// setup right after the appliance joined the network.
func Provision(ctx context.Context, httpClient *http.Client, host string, newClient func(crypto.Credentials) (*Client, error)) (string, crypto.Credentials, error) {
	creds, err := crypto.GenerateCredentials()
	if err != nil {
		return "", crypto.Credentials{}, err
	}
	if err := Register(ctx, httpClient, host, creds); err != nil {
		return "", crypto.Credentials{}, err
	}

	client, err := newClient(creds)
	if err != nil {
		return "", crypto.Credentials{}, err
	}
	devices, err := client.ListDevices(ctx)
	if err != nil {
		return "", crypto.Credentials{}, err
	}
	for id := range devices {
		return id, creds, nil
	}
	return "", crypto.Credentials{}, ErrNoDevices
}
