package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/go-iostore/iostore/internal/errkind"
)

// zstdBackend lazily allocates a single shared decoder and reuses it
// across calls; DecodeAll is safe for concurrent use.
type zstdBackend struct {
	once sync.Once
	dec  *zstd.Decoder
	err  error
}

func newZstdBackend() *zstdBackend {
	return &zstdBackend{}
}

func (b *zstdBackend) decoder() (*zstd.Decoder, error) {
	b.once.Do(func() {
		b.dec, b.err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return b.dec, b.err
}

func (b *zstdBackend) Decompress(dst, src []byte, expectedLen int) (int, error) {
	dec, err := b.decoder()
	if err != nil {
		return 0, &errkind.DecompressFailedError{Method: "Zstd", Expected: expectedLen, Cause: err}
	}

	if len(dst) < expectedLen {
		return 0, &errkind.DecompressFailedError{Method: "Zstd", Expected: expectedLen, Reason: "destination too small"}
	}

	out, err := dec.DecodeAll(src, dst[:0:expectedLen])
	if err != nil {
		return 0, &errkind.DecompressFailedError{Method: "Zstd", Expected: expectedLen, Cause: err}
	}
	n := copy(dst, out)
	return n, nil
}
