package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const (
	saltLength = 16
	keyLength  = 32
)

var errMalformedDigest = errors.New("malformed password digest")

// HashParams is the argon2id work factor.
type HashParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultHashParams mirrors the KDF parameters used for master keys.
var DefaultHashParams = HashParams{MemoryKiB: 64 * 1024, Iterations: 1, Parallelism: 4}

// PasswordHasher turns plaintext passwords into salted argon2id digests and
// checks plaintexts against them. At most `concurrency` digests are computed
// at the same time; callers beyond that wait or give up with their context.
type PasswordHasher struct {
	params HashParams
	sem    *semaphore.Weighted
}

func NewPasswordHasher(params HashParams, concurrency int) *PasswordHasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PasswordHasher{params: params, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns a PHC-style digest:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func (h *PasswordHasher) Hash(password string) (string, error) {
	return h.HashContext(context.Background(), password)
}

func (h *PasswordHasher) HashContext(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	salt := common.GenerateRandByteArray(saltLength)
	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches digest. A malformed digest never
// matches.
func (h *PasswordHasher) Verify(password, digest string) bool {
	ok, _ := h.VerifyContext(context.Background(), password, digest)
	return ok
}

// VerifyContext is Verify bounded by the hasher's concurrency limit. The error
// is non-nil only when ctx ended while waiting for a slot.
func (h *PasswordHasher) VerifyContext(ctx context.Context, password, digest string) (bool, error) {
	p, salt, key, err := decodeDigest(digest)
	if err != nil {
		return false, nil
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeDigest(digest string) (HashParams, []byte, []byte, error) {
	var p HashParams

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedDigest
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, errMalformedDigest
	}
	if p.MemoryKiB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, errMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedDigest
	}

	return p, salt, key, nil
}
