package security

import (
	"bytes"
	"testing"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptorFromSecret("portal-test-secret")
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	token := "mb_access_token_12345"
	ciphertext, err := enc.EncryptString(token)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if bytes.Contains(ciphertext, []byte(token)) {
		t.Error("ciphertext contains plaintext")
	}

	plaintext, err := enc.DecryptString(ciphertext)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if plaintext != token {
		t.Errorf("expected %q, got %q", token, plaintext)
	}
}

func TestEncryptor_InvalidKeyLength(t *testing.T) {
	if _, err := NewEncryptor([]byte("short")); err == nil {
		t.Error("expected error for invalid key length")
	}
}

func TestEncryptor_DecryptWithWrongKeyFails(t *testing.T) {
	a, _ := NewEncryptorFromSecret("secret-a")
	b, _ := NewEncryptorFromSecret("secret-b")

	ciphertext, err := a.EncryptString("refresh-token")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if _, err := b.DecryptString(ciphertext); err == nil {
		t.Error("expected decryption with wrong key to fail")
	}
}

func TestEncryptor_TamperedCiphertextFails(t *testing.T) {
	enc, _ := NewEncryptorFromSecret("portal-test-secret")

	ciphertext, err := enc.EncryptString("refresh-token")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	ciphertext[len(ciphertext)-1] ^= 0xFF
	if _, err := enc.Decrypt(ciphertext); err == nil {
		t.Error("expected tampered ciphertext to fail authentication")
	}
}
