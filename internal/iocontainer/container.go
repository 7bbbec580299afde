// Package iocontainer mounts a container: it opens the sidecar and
// partition file handles, loads the TOC, and exposes the public read
// surface (list files, read chunk).
package iocontainer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/go-iostore/iostore/internal/chunkread"
	"github.com/go-iostore/iostore/internal/codec"
	"github.com/go-iostore/iostore/internal/dirindex"
	"github.com/go-iostore/iostore/internal/errkind"
	"github.com/go-iostore/iostore/internal/iotoc"
)

type mountState int32

const (
	stateUnmounted mountState = iota
	stateMounted
	stateClosed
)

// KeyResolver looks up the decryption key for an encryption-key guid.
type KeyResolver interface {
	Lookup(guid iotoc.Guid) (key [32]byte, ok bool)
}

// MapKeyResolver is the provided in-memory KeyResolver.
type MapKeyResolver map[iotoc.Guid][32]byte

func (m MapKeyResolver) Lookup(guid iotoc.Guid) ([32]byte, bool) {
	k, ok := m[guid]
	return k, ok
}

// MountOptions controls how much of the TOC is eagerly captured.
type MountOptions struct {
	ReadDirectoryIndex bool
	ReadTocMeta        bool
	Codecs             *codec.Registry
}

func (o MountOptions) toTocOptions() iotoc.ReadOptions {
	return iotoc.ReadOptions{
		ReadDirectoryIndex: o.ReadDirectoryIndex,
		ReadTocMeta:        o.ReadTocMeta,
	}
}

// Container is the mounted, read-only view over a .utoc/.ucas[_sN] set.
// After Mount returns, the TOC tables are immutable; reads take no global
// lock.
type Container struct {
	toc        *iotoc.Toc
	partitions []*os.File
	memSrc     *memoryPartitionSource
	key        *[32]byte
	codecs     *codec.Registry

	dirOnce   sync.Once
	dirReader *dirindex.Reader
	dirErr    error

	state int32 // mountState, checked atomically
}

func partitionPath(basePath string, i int) string {
	if i == 0 {
		return basePath + ".ucas"
	}
	return fmt.Sprintf("%s_s%d.ucas", basePath, i)
}

// Mount reads <basePath>.utoc fully into memory, parses it, resolves the
// decryption key (if the container is encrypted) before touching any
// partition, then opens every partition file concurrently. The whole mount
// fails on the first open error.
func Mount(ctx context.Context, basePath string, keys KeyResolver, opts MountOptions) (*Container, error) {
	utocPath := basePath + ".utoc"
	data, err := os.ReadFile(utocPath)
	if err != nil {
		return nil, &errkind.ContainerOpenFailedError{Path: utocPath, Cause: err}
	}

	toc, err := iotoc.Read(data, opts.toTocOptions())
	if err != nil {
		return nil, err
	}

	var key *[32]byte
	if toc.Header.ContainerFlags.Has(iotoc.FlagEncrypted) {
		k, ok := keys.Lookup(toc.Header.EncryptionKeyGuid)
		if !ok {
			return nil, &errkind.MissingKeyError{Guid: toc.Header.EncryptionKeyGuid}
		}
		key = &k
	}

	partitionCount := int(toc.PartitionCount())
	partitions := make([]*os.File, partitionCount)

	var wg errgroup.Group
	for i := 0; i < partitionCount; i++ {
		i := i
		wg.Go(func() error {
			path := partitionPath(basePath, i)
			f, err := os.OpenFile(path, os.O_RDONLY, 0)
			if err != nil {
				return &errkind.ContainerOpenFailedError{Path: path, Cause: err}
			}
			partitions[i] = f
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		for _, f := range partitions {
			if f != nil {
				f.Close()
			}
		}
		return nil, err
	}

	codecs := opts.Codecs
	if codecs == nil {
		codecs = codec.NewDefaultRegistry()
	}

	log.WithFields(log.Fields{
		"path":       basePath,
		"partitions": partitionCount,
		"entries":    toc.Stats().EntryCount,
	}).Debug("mounted container")

	c := &Container{toc: toc, partitions: partitions, key: key, codecs: codecs}
	atomic.StoreInt32(&c.state, int32(stateMounted))
	return c, nil
}

// MountFromMemory mounts a single-partition container entirely from
// caller-supplied buffers. Fails with errkind.UnsupportedError if the parsed
// TOC declares more than one partition.
func MountFromMemory(ctx context.Context, utoc, ucas []byte, keys KeyResolver, opts MountOptions) (*Container, error) {
	toc, err := iotoc.Read(utoc, opts.toTocOptions())
	if err != nil {
		return nil, err
	}
	if toc.PartitionCount() > 1 {
		return nil, &errkind.UnsupportedError{Reason: "MountFromMemory supports a single partition only"}
	}

	var key *[32]byte
	if toc.Header.ContainerFlags.Has(iotoc.FlagEncrypted) {
		k, ok := keys.Lookup(toc.Header.EncryptionKeyGuid)
		if !ok {
			return nil, &errkind.MissingKeyError{Guid: toc.Header.EncryptionKeyGuid}
		}
		key = &k
	}

	codecs := opts.Codecs
	if codecs == nil {
		codecs = codec.NewDefaultRegistry()
	}

	c := &Container{
		toc:    toc,
		key:    key,
		codecs: codecs,
		memSrc: &memoryPartitionSource{data: ucas},
	}
	atomic.StoreInt32(&c.state, int32(stateMounted))
	return c, nil
}

func (c *Container) checkMounted() error {
	if mountState(atomic.LoadInt32(&c.state)) != stateMounted {
		return &errkind.UnsupportedError{Reason: "container is not mounted"}
	}
	return nil
}

// ContainerId returns the header's container id.
func (c *Container) ContainerId() iotoc.ContainerId { return c.toc.Header.ContainerId }

// ContainerFlags returns the header's flag set.
func (c *Container) ContainerFlags() iotoc.ContainerFlags { return c.toc.Header.ContainerFlags }

// EncryptionKeyGuid returns the header's encryption-key guid.
func (c *Container) EncryptionKeyGuid() iotoc.Guid { return c.toc.Header.EncryptionKeyGuid }

// OffsetAndLength returns the decoded offset/length pair for id.
func (c *Container) OffsetAndLength(id iotoc.ChunkId) (iotoc.OffsetAndLength, bool) {
	return c.toc.OffsetAndLength(id)
}

// Stats returns a read-only diagnostic summary of the loaded TOC.
func (c *Container) Stats() iotoc.Stats { return c.toc.Stats() }

// Read resolves id and returns its decoded bytes in a freshly allocated
// buffer.
func (c *Container) Read(ctx context.Context, id iotoc.ChunkId) ([]byte, error) {
	if err := c.checkMounted(); err != nil {
		return nil, err
	}
	ol, ok := c.toc.OffsetAndLength(id)
	if !ok {
		return nil, &errkind.UnknownChunkError{ChunkId: id}
	}
	dst := make([]byte, ol.Length)
	n, err := chunkread.Read(ctx, c.toc, c.partitionSource(), c.key, c.codecs, id, dst, nil)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// ReadInto resolves id and decodes it into dst, avoiding an allocation
// when the caller already sized dst to the chunk's length.
func (c *Container) ReadInto(ctx context.Context, id iotoc.ChunkId, dst []byte) (int, error) {
	if err := c.checkMounted(); err != nil {
		return 0, err
	}
	return chunkread.Read(ctx, c.toc, c.partitionSource(), c.key, c.codecs, id, dst, nil)
}

// ReadMany reads every id concurrently, each on its own goroutine with its
// own scratch buffers, per the single-writer/multi-reader model: no global
// lock, no shared mutable state across calls.
func (c *Container) ReadMany(ctx context.Context, ids []iotoc.ChunkId) ([][]byte, []error) {
	results := make([][]byte, len(ids))
	errs := make([]error, len(ids))

	var wg errgroup.Group
	for i, id := range ids {
		i, id := i, id
		wg.Go(func() error {
			results[i], errs[i] = c.Read(ctx, id)
			return nil // per-id errors are reported positionally, not collapsed to the first
		})
	}
	wg.Wait()

	return results, errs
}

// ListFiles builds the directory index lazily on first call, then walks it
// from the root, calling fn(path, chunkId) for every file entry.
func (c *Container) ListFiles(ctx context.Context, fn func(path string, id iotoc.ChunkId) bool) error {
	if err := c.checkMounted(); err != nil {
		return err
	}

	reader, err := c.directoryIndex()
	if err != nil {
		return err
	}
	if reader == nil {
		return nil // container has no embedded directory index
	}

	chunkIds := c.toc.ChunkIds()
	reader.Iterate(dirindex.RootIndex, "", func(path string, chunkIndex uint32) bool {
		if int(chunkIndex) >= len(chunkIds) {
			return true
		}
		return fn(path, chunkIds[chunkIndex])
	})
	return nil
}

func (c *Container) directoryIndex() (*dirindex.Reader, error) {
	c.dirOnce.Do(func() {
		if !c.toc.Header.ContainerFlags.Has(iotoc.FlagIndexed) {
			return
		}
		blob := c.toc.DirectoryIndexBlob()
		if blob == nil {
			c.dirErr = errors.New("directory index not captured at mount time (MountOptions.ReadDirectoryIndex was false)")
			return
		}
		c.dirReader, c.dirErr = dirindex.New(blob, c.key, c.toc.Header.ContainerFlags)
		if c.dirErr == nil {
			c.toc.ReleaseDirectoryIndexBlob()
		}
	})
	return c.dirReader, c.dirErr
}

// Close transitions the container to Closed and releases partition file
// handles. Idempotent.
func (c *Container) Close() error {
	if !atomic.CompareAndSwapInt32(&c.state, int32(stateMounted), int32(stateClosed)) {
		return nil
	}
	var firstErr error
	for _, f := range c.partitions {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
