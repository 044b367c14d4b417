// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth provides password hashing and verification. New hashes are
// argon2id; bcrypt hashes and legacy plaintext values are still accepted so
// they can be upgraded on the next successful login.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2id parameters for new hashes (OWASP m=19456, t=2, p=1).
const (
	Argon2Time    = 2
	Argon2Memory  = 19 * 1024
	Argon2Threads = 1
	Argon2KeyLen  = 32
	Argon2SaltLen = 16
)

// ErrMalformedHash is returned for stored argon2id values that cannot be decoded.
var ErrMalformedHash = errors.New("malformed argon2id hash")

// Scheme identifies how a stored password value is encoded.
type Scheme string

// Password storage schemes
const (
	SchemeArgon2id  Scheme = "argon2id"
	SchemeBcrypt    Scheme = "bcrypt"
	SchemePlaintext Scheme = "plaintext"
)

// DetectScheme classifies a stored password value. Anything that does not
// look like a known hash is treated as a legacy plaintext password.
func DetectScheme(stored string) Scheme {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		return SchemeArgon2id
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		return SchemeBcrypt
	default:
		return SchemePlaintext
	}
}

// argon2Hash is a decoded $argon2id$v=19$m=..,t=..,p=..$salt$key value.
type argon2Hash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (h argon2Hash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func (h argon2Hash) derive(password string) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(len(h.key)))
}

func (h argon2Hash) current() bool {
	return h.memory == Argon2Memory && h.time == Argon2Time && h.threads == Argon2Threads
}

func parseArgon2(encoded string) (argon2Hash, error) {
	var h argon2Hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return h, ErrMalformedHash
	}

	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != argon2.Version {
		return h, fmt.Errorf("%w: version %q", ErrMalformedHash, parts[2])
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return h, fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return h, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return h, nil
}

// HashPassword returns a new argon2id hash of password with a random salt.
func HashPassword(password string) (string, error) {
	h := argon2Hash{
		memory:  Argon2Memory,
		time:    Argon2Time,
		threads: Argon2Threads,
		salt:    make([]byte, Argon2SaltLen),
		key:     make([]byte, Argon2KeyLen),
	}
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	h.key = h.derive(password)
	return h.String(), nil
}

// NeedsRehash reports whether stored is anything other than an argon2id hash
// with the current parameters.
func NeedsRehash(stored string) bool {
	h, err := parseArgon2(stored)
	return err != nil || !h.current()
}

// VerifyResult is the outcome of checking a password against a stored value.
type VerifyResult struct {
	Match  bool
	Scheme Scheme
	// NeedsUpgrade is set on a match when the stored value should be replaced
	// with a fresh argon2id hash.
	NeedsUpgrade bool
}

// Verify checks password against a stored value of any supported scheme.
//
// Plaintext values predate hashing and are only accepted so existing
// accounts can sign in once and be migrated.
// TODO: drop SchemePlaintext once no rows report it in the login upgrade log.
func Verify(password, stored string) (VerifyResult, error) {
	res := VerifyResult{Scheme: DetectScheme(stored)}
	if stored == "" {
		return res, nil
	}

	switch res.Scheme {
	case SchemeArgon2id:
		h, err := parseArgon2(stored)
		if err != nil {
			return res, err
		}
		res.Match = subtle.ConstantTimeCompare(h.derive(password), h.key) == 1
		res.NeedsUpgrade = res.Match && !h.current()
	case SchemeBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("verifying bcrypt hash: %w", err)
		}
		res.Match = true
		res.NeedsUpgrade = true
	default:
		res.Match = subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
		res.NeedsUpgrade = res.Match
	}
	return res, nil
}
