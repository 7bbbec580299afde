package codec

import "github.com/go-iostore/iostore/internal/errkind"

// noneBackend is the sentinel "no compression" method, always registered at
// method-table index 0.
type noneBackend struct{}

func (noneBackend) Decompress(dst, src []byte, expectedLen int) (int, error) {
	if len(src) != expectedLen {
		return 0, &errkind.DecompressFailedError{Method: "None", Expected: expectedLen, Got: len(src)}
	}
	n := copy(dst, src)
	return n, nil
}
