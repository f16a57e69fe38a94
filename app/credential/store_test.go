package credential_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-segfault/app/credential"

	"golang.org/x/crypto/bcrypt"
)

func newStore(t *testing.T) *credential.Store {
	t.Helper()

	store, err := credential.NewStore(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	return store
}

func TestStore_HashAndVerify(t *testing.T) {
	store := newStore(t)

	digest, err := store.Hash("Abc12345!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if digest == "Abc12345!" || !strings.HasPrefix(digest, "$2") {
		t.Fatalf("unexpected digest %q", digest)
	}

	ok, err := store.Verify("Abc12345!", digest)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = store.Verify("wrong", digest)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got ok=%v err=%v", ok, err)
	}
}

func TestStore_HashIsSalted(t *testing.T) {
	store := newStore(t)

	first, _ := store.Hash("same-password")
	second, _ := store.Hash("same-password")
	if first == second {
		t.Fatalf("expected different digests for the same password")
	}
}

func TestStore_VerifyMalformedDigest(t *testing.T) {
	store := newStore(t)

	for _, digest := range []string{"", "not-a-hash", "$2a$99$aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"} {
		ok, err := store.Verify("password", digest)
		if ok || !errors.Is(err, credential.ErrMalformedDigest) {
			t.Fatalf("digest %q: expected ErrMalformedDigest, got ok=%v err=%v", digest, ok, err)
		}
	}
}

func TestStore_HashTooLong(t *testing.T) {
	store := newStore(t)

	_, err := store.Hash(strings.Repeat("a", 73))
	if !errors.Is(err, credential.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	digest, err := store.Hash("Abc12345!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	ok, err := store.Verify(strings.Repeat("a", 73), digest)
	if ok || err != nil {
		t.Fatalf("expected plain mismatch for long password, got ok=%v err=%v", ok, err)
	}
}

func TestNewStore_RejectsCost(t *testing.T) {
	if _, err := credential.NewStore(bcrypt.MaxCost + 1); !errors.Is(err, credential.ErrInvalidCostValue) {
		t.Fatalf("expected ErrInvalidCostValue, got %v", err)
	}
}
