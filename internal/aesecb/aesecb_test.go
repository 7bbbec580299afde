package aesecb

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"testing"
)

func encryptECB(t *testing.T, plaintext []byte, key [KeySize]byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key[:])
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	out := make([]byte, len(plaintext))
	for off := 0; off < len(plaintext); off += aes.BlockSize {
		block.Encrypt(out[off:off+aes.BlockSize], plaintext[off:off+aes.BlockSize])
	}
	return out
}

func TestDecryptRoundTrip(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 4) // 64 bytes, 4 blocks
	ciphertext := encryptECB(t, plaintext, key)

	dst := make([]byte, len(ciphertext))
	if err := Decrypt(dst, ciphertext, key); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	if !bytes.Equal(dst, plaintext) {
		t.Fatalf("Decrypt() = %x, want %x", dst, plaintext)
	}
}

func TestDecryptInPlace(t *testing.T) {
	var key [KeySize]byte
	plaintext := bytes.Repeat([]byte{0xAB}, 32)
	ciphertext := encryptECB(t, plaintext, key)

	if err := DecryptInPlace(ciphertext, key); err != nil {
		t.Fatalf("DecryptInPlace: %v", err)
	}
	if !bytes.Equal(ciphertext, plaintext) {
		t.Fatalf("DecryptInPlace() = %x, want %x", ciphertext, plaintext)
	}
}

func TestDecryptUnalignedLength(t *testing.T) {
	var key [KeySize]byte
	if err := Decrypt(make([]byte, 20), make([]byte, 20), key); err == nil {
		t.Fatalf("expected error for unaligned length")
	}
}

func TestDecryptShortDestination(t *testing.T) {
	var key [KeySize]byte
	src := make([]byte, 32)
	dst := make([]byte, 16)
	if err := Decrypt(dst, src, key); err == nil {
		t.Fatalf("expected error for short destination")
	}
}
