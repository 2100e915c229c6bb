package krypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey indicates data was encrypted with a key the Encryptor doesn't have.
	ErrUnknownKey = errors.New("unknown key")
	// ErrInvalidData indicates data can't be encrypted or decrypted.
	ErrInvalidData = errors.New("invalid data")
)

// keyIndexLen is the length of the big endian key index that prefixes encrypted data.
const keyIndexLen = 4

// Encryptor encrypts and decrypts data with AES-GCM.
//
// It holds an append only list of keys, of which the last one is used for
// encryption. Encrypted data is laid out as:
//
//	key index (4 bytes) | nonce | ciphertext
//
// The key index is authenticated as additional data, so data encrypted with an
// older key can still be decrypted after new keys were added. The index itself is not secret.
type Encryptor struct {
	aeads []cipher.AEAD
}

// NewEncryptor creates an Encryptor for keys, in the order they were added.
func NewEncryptor(keys []Key) (*Encryptor, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one key is required")
	}

	aeads := make([]cipher.AEAD, 0, len(keys))
	for i, k := range keys {
		block, err := aes.NewCipher(k.value)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}

		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}

		aeads = append(aeads, aead)
	}

	return &Encryptor{aeads: aeads}, nil
}

// Encrypt encrypts data with the latest key.
func (e *Encryptor) Encrypt(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	index := len(e.aeads) - 1
	aead := e.aeads[index]

	nonce, err := genRandomBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}

	out := make([]byte, keyIndexLen, keyIndexLen+len(nonce)+len(data)+aead.Overhead())
	binary.BigEndian.PutUint32(out, uint32(index))
	out = append(out, nonce...)

	return aead.Seal(out, nonce, data, out[:keyIndexLen]), nil
}

// Decrypt decrypts data that was encrypted by Encrypt, with any of the keys.
func (e *Encryptor) Decrypt(message []byte) ([]byte, error) {
	if len(message) < keyIndexLen {
		return nil, ErrInvalidData
	}

	index := binary.BigEndian.Uint32(message[:keyIndexLen])
	if uint64(index) >= uint64(len(e.aeads)) {
		return nil, ErrUnknownKey
	}

	aead := e.aeads[index]
	headerLen := keyIndexLen + aead.NonceSize()
	if len(message) <= headerLen {
		return nil, ErrInvalidData
	}

	nonce := message[keyIndexLen:headerLen]
	data, err := aead.Open(nil, nonce, message[headerLen:], message[:keyIndexLen])
	if err != nil {
		return nil, errors.Join(ErrInvalidData, err)
	}

	return data, nil
}
