package codec

import (
	"github.com/new-world-tools/go-oodle"

	"github.com/go-iostore/iostore/internal/errkind"
)

// oodleBackend decodes Oodle-compressed frames via go-oodle, which loads
// the Oodle shared library at runtime.
type oodleBackend struct{}

func (oodleBackend) Decompress(dst, src []byte, expectedLen int) (int, error) {
	out, err := oodle.Decompress(src, int64(expectedLen))
	if err != nil {
		return 0, &errkind.DecompressFailedError{Method: "Oodle", Expected: expectedLen, Cause: err}
	}
	if len(out) != expectedLen {
		return len(out), &errkind.DecompressFailedError{Method: "Oodle", Expected: expectedLen, Got: len(out)}
	}
	n := copy(dst, out)
	return n, nil
}
