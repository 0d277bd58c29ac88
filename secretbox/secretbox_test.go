package secretbox

import (
	"bytes"
	"testing"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec, err := New(testKey())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	plaintext := []byte("provider refresh credential")
	ciphertext, err := codec.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext leaks plaintext")
	}

	got, err := codec.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	codec, err := New(testKey())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ciphertext, err := codec.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	ciphertext[len(ciphertext)-1] ^= 0x01
	if _, err := codec.Decrypt(ciphertext); err != ErrCiphertextInvalid {
		t.Fatalf("expected ErrCiphertextInvalid, got %v", err)
	}

	if _, err := codec.Decrypt([]byte("short")); err != ErrCiphertextInvalid {
		t.Fatalf("expected ErrCiphertextInvalid for truncated input, got %v", err)
	}
}

func TestDecryptRejectsForeignKey(t *testing.T) {
	codec, err := New(testKey())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	other := testKey()
	other[0] ^= 0xFF
	foreign, err := New(other)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ciphertext, err := codec.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := foreign.Decrypt(ciphertext); err != ErrCiphertextInvalid {
		t.Fatalf("expected ErrCiphertextInvalid, got %v", err)
	}
}

func TestSumVerify(t *testing.T) {
	codec, err := New(testKey())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data := []byte("token-id:7f9a")
	sum := codec.Sum(data)
	if !codec.VerifySum(data, sum) {
		t.Fatal("VerifySum rejected a valid sum")
	}
	if codec.VerifySum([]byte("token-id:0000"), sum) {
		t.Fatal("VerifySum accepted a sum for different data")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a, err := DeriveKey(testKey(), "token-signing", 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	b, err := DeriveKey(testKey(), "token-signing", 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("DeriveKey is not deterministic")
	}

	c, err := DeriveKey(testKey(), "other-label", 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(a, c) {
		t.Fatal("distinct labels produced the same key")
	}
}

func TestMasterKeyTooShort(t *testing.T) {
	if _, err := New([]byte("short")); err != ErrMasterKeyTooShort {
		t.Fatalf("expected ErrMasterKeyTooShort, got %v", err)
	}
}
