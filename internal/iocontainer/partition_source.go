package iocontainer

import (
	"github.com/pkg/errors"

	"github.com/go-iostore/iostore/internal/chunkread"
	"github.com/go-iostore/iostore/internal/errkind"
)

// partitionSource returns the chunkread.PartitionSource backing this
// container: either its open partition file handles, or the single
// in-memory buffer MountFromMemory was given.
func (c *Container) partitionSource() chunkread.PartitionSource {
	if c.memSrc != nil {
		return c.memSrc
	}
	return (*containerPartitionSource)(c)
}

// containerPartitionSource adapts Container's open partition handles to
// chunkread.PartitionSource. *os.File's ReadAt is safe for concurrent
// callers since it does not move a shared cursor, so every reader can
// share the same handle without a per-handle lock.
type containerPartitionSource Container

func (s *containerPartitionSource) ReadAt(partitionIndex int, offset int64, buf []byte) (int, error) {
	if partitionIndex < 0 || partitionIndex >= len(s.partitions) {
		return 0, &errkind.ShortReadError{Want: len(buf), Got: 0}
	}
	n, err := s.partitions[partitionIndex].ReadAt(buf, offset)
	if n != len(buf) {
		// A truncated partition or EOF mid-block surfaces as ShortRead,
		// not as a generic I/O error.
		return n, &errkind.ShortReadError{Want: len(buf), Got: n, Cause: err}
	}
	if err != nil {
		return n, errors.Wrapf(err, "ReadAt(partition=%d, offset=%d)", partitionIndex, offset)
	}
	return n, nil
}

// memoryPartitionSource serves the single in-memory partition
// MountFromMemory accepts.
type memoryPartitionSource struct {
	data []byte
}

func (s *memoryPartitionSource) ReadAt(partitionIndex int, offset int64, buf []byte) (int, error) {
	if partitionIndex != 0 {
		return 0, &errkind.ShortReadError{Want: len(buf), Got: 0}
	}
	if offset < 0 || offset+int64(len(buf)) > int64(len(s.data)) {
		return 0, &errkind.ShortReadError{Want: len(buf), Got: 0}
	}
	return copy(buf, s.data[offset:offset+int64(len(buf))]), nil
}
