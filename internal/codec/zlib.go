package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/go-iostore/iostore/internal/errkind"
)

type zlibBackend struct{}

func (zlibBackend) Decompress(dst, src []byte, expectedLen int) (int, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, &errkind.DecompressFailedError{Method: "Zlib", Expected: expectedLen, Cause: err}
	}
	defer zr.Close()

	if len(dst) < expectedLen {
		return 0, &errkind.DecompressFailedError{Method: "Zlib", Expected: expectedLen, Reason: "destination too small"}
	}

	n, err := io.ReadFull(zr, dst[:expectedLen])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return n, &errkind.DecompressFailedError{Method: "Zlib", Expected: expectedLen, Got: n, Cause: err}
	}
	return n, nil
}
