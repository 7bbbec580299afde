// Package codec dispatches decompression by compression-method name to a
// backend, keyed by the container's method-name table.
package codec

import (
	log "github.com/sirupsen/logrus"

	"github.com/go-iostore/iostore/internal/errkind"
)

// Backend decompresses src (the whole compressed frame) into dst, which
// must be at least expectedLen bytes, and returns the bytes written. It must return
// errkind.DecompressFailedError (or a wrapper of it) on failure.
type Backend interface {
	Decompress(dst, src []byte, expectedLen int) (int, error)
}

// Registry maps a compression-method name to the Backend that decodes it.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry returns an empty registry; callers register backends
// explicitly, which is useful for tests that only need "None".
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// NewDefaultRegistry returns a registry with every backend this module
// ships registered: None, Zlib, Gzip, Oodle, Brotli, and the bonus Zstd
// backend.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("None", noneBackend{})
	r.Register("Zlib", zlibBackend{})
	r.Register("Gzip", gzipBackend{})
	r.Register("Brotli", brotliBackend{})
	r.Register("Oodle", oodleBackend{})
	r.Register("Zstd", newZstdBackend())
	return r
}

// Register installs (or replaces) the backend for a method name.
func (r *Registry) Register(method string, b Backend) {
	r.backends[method] = b
}

// Decompress looks up method and runs it. expectedLen is the uncompressed
// size the caller expects; len(dst) must be at least that much.
func (r *Registry) Decompress(method string, dst, src []byte, expectedLen int) (int, error) {
	b, ok := r.backends[method]
	if !ok {
		return 0, &errkind.UnsupportedCodecError{Method: method}
	}

	n, err := b.Decompress(dst, src, expectedLen)
	if err != nil {
		log.WithFields(log.Fields{
			"method":   method,
			"expected": expectedLen,
			"got":      n,
		}).Debug("decompress failed")
		if _, ok := err.(*errkind.DecompressFailedError); ok {
			return n, err
		}
		return n, &errkind.DecompressFailedError{Method: method, Expected: expectedLen, Got: n, Cause: err}
	}
	if n != expectedLen {
		return n, &errkind.DecompressFailedError{Method: method, Expected: expectedLen, Got: n}
	}
	return n, nil
}
