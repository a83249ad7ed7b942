package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var tempPasswordCharset = []rune("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789")

// ErrInvalidHash signals a hash string in neither supported format.
var ErrInvalidHash = fmt.Errorf("invalid password hash")

// ArgonParams captures the Argon2id parameters we embed into each hash string.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// HashPassword returns a formatted Argon2id hash for the provided password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	params := paramsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Time, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword returns true when password matches encoded. Argon2id hashes
// and bcrypt hashes carried over from the previous user table are accepted.
func VerifyPassword(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case err == bcrypt.ErrMismatchedHashAndPassword:
			return false, nil
		default:
			return false, ErrInvalidHash
		}
	}

	params, salt, hash, err := decodeArgon(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)
	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}

// NeedsRehash reports whether encoded should be replaced by a fresh Argon2id hash.
func NeedsRehash(encoded string) bool {
	return isBcrypt(encoded)
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$")
}

func paramsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      clampUint32(cfg.ArgonMemoryKB, 8, 512*1024),
		Time:        clampUint32(cfg.ArgonTime, 1, 10),
		Parallelism: uint8(clampInt(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     clampUint32(cfg.ArgonSaltLen, 8, 64),
		KeyLen:      clampUint32(cfg.ArgonKeyLen, 16, 64),
	}
}

// decodeArgon parses $argon2id$v=19$m=..,t=..,p=..$salt$hash.
func decodeArgon(encoded string) (ArgonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	var params ArgonParams
	bits := map[string]int{"m": 32, "t": 32, "p": 8}
	for _, token := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(token, "=")
		size, known := bits[key]
		if !ok || !known {
			return ArgonParams{}, nil, nil, ErrInvalidHash
		}
		v, err := strconv.ParseUint(value, 10, size)
		if err != nil {
			return ArgonParams{}, nil, nil, ErrInvalidHash
		}
		switch key {
		case "m":
			params.Memory = uint32(v)
		case "t":
			params.Time = uint32(v)
		case "p":
			params.Parallelism = uint8(v)
		}
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	params.SaltLen = uint32(len(salt))
	params.KeyLen = uint32(len(hash))
	return params, salt, hash, nil
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampUint32(value, min, max int) uint32 {
	return uint32(clampInt(value, min, max))
}

// GenerateTempPassword produces a random string suitable for temporary credentials.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	limit := big.NewInt(int64(len(tempPasswordCharset)))
	result := make([]rune, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		result[i] = tempPasswordCharset[n.Int64()]
	}
	return string(result), nil
}
