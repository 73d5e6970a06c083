// AES-CBC body encryption for the Miele local HTTP API.
//
// Request and response bodies are encrypted with AES in CBC mode. The cipher
// key is the first half of the GroupKey (a 64-byte GroupKey yields AES-256)
// and the IV is derived from the request's own signature, so encryption
// state is stateless per call.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// BlockSize is the AES block size; padded bodies are a multiple of this.
const BlockSize = aes.BlockSize

// Errors.
var (
	ErrShortSignature  = errors.New("crypto: signature shorter than IV size")
	ErrInvalidKeySize  = errors.New("crypto: invalid cipher key size")
	ErrInvalidIVSize   = errors.New("crypto: invalid IV size")
	ErrNotBlockAligned = errors.New("crypto: ciphertext not block aligned")
	ErrInvalidPadding  = errors.New("crypto: invalid padding")
	ErrEmptyPlaintext  = errors.New("crypto: empty plaintext after unpadding")
	ErrOddGroupKeySize = errors.New("crypto: group key length must be even")
	ErrEmptyGroupKey   = errors.New("crypto: empty group key")
)

// CipherKey derives the AES key from the GroupKey. The signing key is the
// full GroupKey; the block cipher uses only the first half.
func CipherKey(groupKey []byte) ([]byte, error) {
	if len(groupKey) == 0 {
		return nil, ErrEmptyGroupKey
	}
	if len(groupKey)%2 != 0 {
		return nil, ErrOddGroupKeySize
	}
	half := len(groupKey) / 2
	switch half {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKeySize
	}
	key := make([]byte, half)
	copy(key, groupKey[:half])
	return key, nil
}

// Pad appends PKCS#7 padding to a 16-byte block boundary. A full padding
// block is added when the input is already block aligned, so unpadding is
// unambiguous for every input length including zero.
func Pad(plaintext []byte) []byte {
	padLen := BlockSize - len(plaintext)%BlockSize
	out := make([]byte, len(plaintext)+padLen)
	copy(out, plaintext)
	for i := len(plaintext); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

// Unpad strips PKCS#7 padding. The input must be non-empty and block
// aligned, and every padding byte must equal the pad length.
func Unpad(padded []byte) ([]byte, error) {
	if len(padded) == 0 || len(padded)%BlockSize != 0 {
		return nil, ErrInvalidPadding
	}
	padLen := int(padded[len(padded)-1])
	if padLen == 0 || padLen > BlockSize || padLen > len(padded) {
		return nil, ErrInvalidPadding
	}
	for _, b := range padded[len(padded)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidPadding
		}
	}
	return padded[:len(padded)-padLen], nil
}

// EncryptCBC encrypts a padded plaintext with AES-CBC.
// The plaintext must already be block aligned (see Pad).
func EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	if len(plaintext)%BlockSize != 0 {
		return nil, ErrNotBlockAligned
	}
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

// DecryptCBC decrypts an AES-CBC ciphertext. The result still carries its
// padding; callers strip it with Unpad.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%BlockSize != 0 {
		return nil, ErrNotBlockAligned
	}
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKeySize
	}
	if len(iv) != IVSize {
		return nil, ErrInvalidIVSize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}
	return block, nil
}
