package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/go-iostore/iostore/internal/errkind"
)

type gzipBackend struct{}

func (gzipBackend) Decompress(dst, src []byte, expectedLen int) (int, error) {
	gr, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, &errkind.DecompressFailedError{Method: "Gzip", Expected: expectedLen, Cause: err}
	}
	defer gr.Close()

	if len(dst) < expectedLen {
		return 0, &errkind.DecompressFailedError{Method: "Gzip", Expected: expectedLen, Reason: "destination too small"}
	}

	n, err := io.ReadFull(gr, dst[:expectedLen])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return n, &errkind.DecompressFailedError{Method: "Gzip", Expected: expectedLen, Got: n, Cause: err}
	}
	return n, nil
}
