package security_test

import (
	"testing"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/security"
	"golang.org/x/crypto/bcrypt"
)

var testParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testParams)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword failed for the correct password: ok=%v err=%v", ok, err)
	}
	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil || ok {
		t.Fatalf("VerifyPassword accepted a wrong password: ok=%v err=%v", ok, err)
	}
	if security.NeedsRehash(hash) {
		t.Fatal("argon2id hash should not need a rehash")
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	ok, err := security.VerifyPassword("hunter22", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected bcrypt match: ok=%v err=%v", ok, err)
	}
	ok, err = security.VerifyPassword("hunter23", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected bcrypt mismatch: ok=%v err=%v", ok, err)
	}
	if !security.NeedsRehash(string(legacy)) {
		t.Fatal("bcrypt hash should be upgraded")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, bad := range []string{"not-a-hash", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA", "$2a$10$short"} {
		if _, err := security.VerifyPassword("irrelevant", bad); err == nil {
			t.Fatalf("expected error for malformed hash %q", bad)
		}
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(16)
	if err != nil || len(pw) != 16 {
		t.Fatalf("unexpected temp password %q err=%v", pw, err)
	}
	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
