package codec

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func TestNoneRoundTrip(t *testing.T) {
	r := NewDefaultRegistry()
	src := []byte("ABCDEFGhij")
	dst := make([]byte, len(src))
	n, err := r.Decompress("None", dst, src, len(src))
	if err != nil {
		t.Fatalf("Decompress(None): %v", err)
	}
	if n != len(src) || !bytes.Equal(dst, src) {
		t.Fatalf("Decompress(None) = %q, want %q", dst[:n], src)
	}
}

func TestZlibRoundTrip(t *testing.T) {
	plaintext := bytes.Repeat([]byte("hello iostore "), 20)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(plaintext); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	r := NewDefaultRegistry()
	dst := make([]byte, len(plaintext))
	n, err := r.Decompress("Zlib", dst, buf.Bytes(), len(plaintext))
	if err != nil {
		t.Fatalf("Decompress(Zlib): %v", err)
	}
	if n != len(plaintext) || !bytes.Equal(dst, plaintext) {
		t.Fatalf("Decompress(Zlib) mismatch")
	}
}

func TestUnsupportedCodec(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Decompress("Lzma", make([]byte, 4), make([]byte, 4), 4)
	if err == nil {
		t.Fatalf("expected error for unregistered codec")
	}
}

func TestWrongLengthIsDecompressFailed(t *testing.T) {
	r := NewRegistry()
	r.Register("None", noneBackend{})
	_, err := r.Decompress("None", make([]byte, 4), []byte{1, 2, 3}, 4)
	if err == nil {
		t.Fatalf("expected error for length mismatch")
	}
}
