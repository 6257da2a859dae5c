package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher — хэширование паролей пользователей.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

// параметры argon2id
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

const argonPrefix = "$argon2id$"

// PasswordHasher хэширует выбранным алгоритмом; Verify узнаёт алгоритм по самому хэшу.
type PasswordHasher struct {
	algo string
}

func NewPasswordHasher(algo string) (*PasswordHasher, error) {
	switch algo {
	case "", HashBcrypt:
		return &PasswordHasher{algo: HashBcrypt}, nil
	case HashArgon2id:
		return &PasswordHasher{algo: HashArgon2id}, nil
	}
	return nil, fmt.Errorf("unknown password hash %q", algo)
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algo == HashArgon2id {
		return argonHash(password)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *PasswordHasher) Verify(hash, password string) bool {
	if strings.HasPrefix(hash, argonPrefix) {
		return argonVerify(hash, password)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func argonHash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix, argon2.Version, argonMemory, argonTime, argonThreads,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

func argonVerify(hash, password string) bool {
	parts := strings.Split(hash, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var mem, iter uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &threads); err != nil {
		return false
	}
	// argon2.IDKey паникует при t=0 или p=0
	if mem == 0 || iter == 0 || threads == 0 {
		return false
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := enc.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, iter, mem, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
