package cryptutil_test

import (
	"bytes"
	"testing"

	"github.com/shardmesh/shardmesh/internal/cryptutil"
)

func TestSHA256Hex_Deterministic(t *testing.T) {
	data := []byte("shardmesh")
	if cryptutil.SHA256Hex(data) != cryptutil.SHA256Hex(data) {
		t.Error("SHA256Hex is not deterministic")
	}
}

func TestSHA256Hex_SensitiveToEveryByte(t *testing.T) {
	a := []byte("confidential data")
	b := append([]byte(nil), a...)
	b[len(b)-1] ^= 0x01

	if cryptutil.SHA256Hex(a) == cryptutil.SHA256Hex(b) {
		t.Error("flipping one byte did not change the hash")
	}
}

func TestFernetCipher_RoundTrip(t *testing.T) {
	c := cryptutil.NewFernetCipher()
	key, err := c.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	plaintext := []byte("CONFIDENTIAL: shardmesh test payload")
	ciphertext, err := c.Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	decrypted, err := c.Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
	}
}

func TestFernetCipher_NonDeterministic(t *testing.T) {
	c := cryptutil.NewFernetCipher()
	key, _ := c.GenerateKey()
	plaintext := []byte("same input, twice")

	first, err := c.Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	second, err := c.Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if bytes.Equal(first, second) {
		t.Error("two encryptions of identical input produced identical ciphertexts")
	}

	for _, ct := range [][]byte{first, second} {
		decrypted, err := c.Decrypt(key, ct)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
		}
	}
}

func TestFernetCipher_Decrypt_WrongKeyFails(t *testing.T) {
	c := cryptutil.NewFernetCipher()
	key, _ := c.GenerateKey()
	otherKey, _ := c.GenerateKey()

	ciphertext, err := c.Encrypt(key, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := c.Decrypt(otherKey, ciphertext); err == nil {
		t.Error("Decrypt() with wrong key succeeded, want error")
	}
}

func TestFernetCipher_Decrypt_TamperedFails(t *testing.T) {
	c := cryptutil.NewFernetCipher()
	key, _ := c.GenerateKey()

	ciphertext, err := c.Encrypt(key, []byte("secret payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0x01

	if _, err := c.Decrypt(key, tampered); err == nil {
		t.Error("Decrypt() of tampered ciphertext succeeded, want error")
	}
}
