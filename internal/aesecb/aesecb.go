// Package aesecb decrypts 16-byte-aligned buffers with AES in ECB mode:
// each 16-byte block decrypted independently, no IV, no chaining.
// crypto/cipher ships no ECB mode, so this drives crypto/aes's raw block
// cipher directly.
package aesecb

import (
	"crypto/aes"

	"github.com/go-iostore/iostore/internal/errkind"
)

const (
	// KeySize is the required AES key length for container decryption.
	KeySize   = 32
	blockSize = aes.BlockSize
)

// Decrypt decrypts src into dst, which must be at least len(src) bytes.
// len(src) must be a multiple of 16.
func Decrypt(dst, src []byte, key [KeySize]byte) error {
	if len(src)%blockSize != 0 {
		return &errkind.DecryptFailedError{Reason: "ciphertext length not a multiple of 16"}
	}
	if len(dst) < len(src) {
		return &errkind.DecryptFailedError{Reason: "destination buffer smaller than source"}
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return &errkind.DecryptFailedError{Reason: err.Error()}
	}

	for off := 0; off < len(src); off += blockSize {
		block.Decrypt(dst[off:off+blockSize], src[off:off+blockSize])
	}
	return nil
}

// DecryptInPlace decrypts buf over itself.
func DecryptInPlace(buf []byte, key [KeySize]byte) error {
	return Decrypt(buf, buf, key)
}
