package codec

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/go-iostore/iostore/internal/errkind"
)

type brotliBackend struct{}

func (brotliBackend) Decompress(dst, src []byte, expectedLen int) (int, error) {
	br := brotli.NewReader(bytes.NewReader(src))

	if len(dst) < expectedLen {
		return 0, &errkind.DecompressFailedError{Method: "Brotli", Expected: expectedLen, Reason: "destination too small"}
	}

	n, err := io.ReadFull(br, dst[:expectedLen])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return n, &errkind.DecompressFailedError{Method: "Brotli", Expected: expectedLen, Got: n, Cause: err}
	}
	return n, nil
}
