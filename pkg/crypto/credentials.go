package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// Canonical credential sizes issued during commissioning.
const (
	// GroupIDSize is the size of a GroupID in bytes.
	GroupIDSize = 8

	// GroupKeySize is the size of a GroupKey in bytes. The full key signs
	// requests; the first half is the AES-256 cipher key.
	GroupKeySize = 64
)

// Credential errors.
var (
	ErrInvalidGroupID  = errors.New("crypto: invalid GroupID length")
	ErrInvalidGroupKey = errors.New("crypto: invalid GroupKey length")
)

// Credentials is the GroupID/GroupKey pair obtained once during
// commissioning. It is immutable for the lifetime of a client and is never
// transmitted in cleartext after commissioning.
type Credentials struct {
	GroupID  []byte
	GroupKey []byte
}

// Validate checks that the credential pair is usable for signing and
// encryption. Key lengths other than the canonical ones are accepted as
// long as a cipher key can be derived, since captured traffic shows
// appliances tolerate them.
func (c Credentials) Validate() error {
	if len(c.GroupID) == 0 {
		return ErrInvalidGroupID
	}
	if _, err := CipherKey(c.GroupKey); err != nil {
		return err
	}
	return nil
}

// ParseCredentials builds a credential pair from hex strings as stored in
// configuration files.
func ParseCredentials(groupIDHex, groupKeyHex string) (Credentials, error) {
	id, err := hex.DecodeString(groupIDHex)
	if err != nil {
		return Credentials{}, ErrInvalidGroupID
	}
	key, err := hex.DecodeString(groupKeyHex)
	if err != nil {
		return Credentials{}, ErrInvalidGroupKey
	}
	creds := Credentials{GroupID: id, GroupKey: key}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// GenerateCredentials creates a random credential pair of canonical size
// for registering with a fresh appliance.
func GenerateCredentials() (Credentials, error) {
	id := make([]byte, GroupIDSize)
	if _, err := rand.Read(id); err != nil {
		return Credentials{}, err
	}
	key := make([]byte, GroupKeySize)
	if _, err := rand.Read(key); err != nil {
		return Credentials{}, err
	}
	return Credentials{GroupID: id, GroupKey: key}, nil
}
