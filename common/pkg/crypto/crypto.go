/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/utils/pkg/crypto"
)

// AESKeyLen - AES key length requirement (32 bytes for AES-256)
const AESKeyLen = 32

// Crypto provides AES-GCM encryption for vault secrets. The key is
// derived once at construction; instances are injected into handlers
// and the workflow engine.
type Crypto struct {
	key []byte
}

// NewCrypto derives the cipher key from the configured secret. A value
// that base64-decodes to exactly 32 bytes is used verbatim; anything
// else is hashed with SHA-256 to produce the key material.
func NewCrypto(configuredKey string) (*Crypto, error) {
	if configuredKey == "" {
		return nil, fmt.Errorf("vault key is empty")
	}
	return &Crypto{key: deriveKey(configuredKey)}, nil
}

func deriveKey(configured string) []byte {
	if raw, err := base64.URLEncoding.DecodeString(configured); err == nil && len(raw) == AESKeyLen {
		return raw
	}
	if raw, err := base64.StdEncoding.DecodeString(configured); err == nil && len(raw) == AESKeyLen {
		return raw
	}
	sum := sha256.Sum256([]byte(configured))
	return sum[:]
}

// Encrypt encrypts plaintext secret content for storage.
func (c *Crypto) Encrypt(plainText []byte) (string, error) {
	if c == nil || len(c.key) == 0 {
		return "", fmt.Errorf("crypto key not initialized")
	}
	return crypto.Encrypt(plainText, c.key)
}

// Decrypt recovers the plaintext of a stored secret. Tampered
// ciphertext or a wrong key yields an InvalidSecret error and no
// partial output. The plaintext must only be held in memory for the
// dispatch that needs it.
func (c *Crypto) Decrypt(ciphertext string) (string, error) {
	if c == nil || len(c.key) == 0 {
		return "", fmt.Errorf("crypto key not initialized")
	}
	data, err := crypto.Decrypt(ciphertext, c.key)
	if err != nil {
		return "", commonerrors.NewInvalidSecret(err.Error())
	}
	return string(data), nil
}
