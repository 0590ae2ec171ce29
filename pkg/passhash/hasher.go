// Package passhash implements argon2id password hashing with a caller-supplied
// per-user salt. The salt is mixed into the password before key derivation, on
// top of the random salt embedded in the encoded hash itself.
package passhash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	encodedSaltLen = 16 // random salt embedded in the encoded hash, bytes
	userSaltLen    = 32 // per-user salt handed out by GenerateSalt, bytes
)

var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrInvalidHash   = errors.New("invalid hash format")
)

// Params control the argon2id cost. The zero value is replaced by
// DefaultParams field-by-field.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32 // iterations
	Threads uint8
	KeyLen  uint32 // derived key length, bytes
}

// DefaultParams follows the OWASP argon2id recommendation.
var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    3,
	Threads: 4,
	KeyLen:  32,
}

// Hasher derives and verifies argon2id password hashes.
type Hasher struct {
	params Params
}

// New creates a Hasher with the given cost parameters.
func New(params Params) *Hasher {
	if params.Memory == 0 {
		params.Memory = DefaultParams.Memory
	}
	if params.Time == 0 {
		params.Time = DefaultParams.Time
	}
	if params.Threads == 0 {
		params.Threads = DefaultParams.Threads
	}
	if params.KeyLen == 0 {
		params.KeyLen = DefaultParams.KeyLen
	}
	return &Hasher{params: params}
}

// GenerateSalt returns a fresh 32-byte random salt, hex-encoded. A new salt
// must be generated per user at sign-up and never reused.
func GenerateSalt() (string, error) {
	salt := make([]byte, userSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// Hash derives an argon2id hash of password+salt and encodes it in PHC string
// format: $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>. The output is
// self-describing, so Verify works even after cost parameters change.
func (h *Hasher) Hash(password, salt string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	inner := make([]byte, encodedSaltLen)
	if _, err := rand.Read(inner); err != nil {
		return "", fmt.Errorf("generating hash salt: %w", err)
	}

	key := argon2.IDKey([]byte(password+salt), inner, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(inner),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify recomputes the hash of password+salt with the parameters embedded in
// encodedHash and compares in constant time.
func (h *Hasher) Verify(password, salt, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, ErrInvalidHash
	}

	if parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if threads == 0 || threads > 255 {
		return false, fmt.Errorf("%w: bad parallelism %d", ErrInvalidHash, threads)
	}

	inner, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if len(expected) == 0 {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(password+salt), inner, time, memory, uint8(threads), uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
