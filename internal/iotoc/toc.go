// Package iotoc parses the .utoc table-of-contents sidecar: the header,
// the chunk-id index, the offset/length and compressed-block tables, the
// compression-method name table, and the optional signature block,
// directory-index blob and chunk-meta table.
package iotoc

import (
	"bytes"

	log "github.com/sirupsen/logrus"

	"github.com/go-iostore/iostore/internal/errkind"
	"github.com/go-iostore/iostore/internal/ioread"
)

// ReadOptions selects which optional sections Read captures rather than
// skips.
type ReadOptions struct {
	ReadDirectoryIndex bool
	ReadTocMeta        bool
}

// Toc is the assembled, immutable set of in-memory tables built once at
// mount.
type Toc struct {
	Header Header

	chunkIds       []ChunkId
	offsetLengths  []OffsetAndLength
	blocks         []CompressedBlockEntry
	methods        []string
	metas          []ChunkMeta
	directoryIndex []byte // raw blob, nil if not captured

	entryIndex map[ChunkId]int
}

// CompressionBlockSize is the fixed uncompressed block size used by the
// content file, carried here for the chunk reader.
func (t *Toc) CompressionBlockSize() uint32 { return t.Header.CompressionBlockSize }

// PartitionSize returns the header's (possibly synthesized) partition
// size.
func (t *Toc) PartitionSize() uint64 { return t.Header.PartitionSize }

// PartitionCount returns the header's (possibly synthesized) partition
// count.
func (t *Toc) PartitionCount() uint32 { return t.Header.PartitionCount }

// Methods returns the compression method-name table, with index 0 always
// "None".
func (t *Toc) Methods() []string { return t.methods }

// Block returns the compressed-block entry at index i.
func (t *Toc) Block(i int) CompressedBlockEntry { return t.blocks[i] }

// BlockCount returns the number of compressed-block entries.
func (t *Toc) BlockCount() int { return len(t.blocks) }

// DirectoryIndexBlob returns the captured directory-index blob, or nil if
// it was not captured (ReadOptions.ReadDirectoryIndex was false, or the
// container has no index).
func (t *Toc) DirectoryIndexBlob() []byte { return t.directoryIndex }

// ReleaseDirectoryIndexBlob drops the raw blob once a dirindex.Reader has
// been built from it; the reader owns its own parsed copy, so the raw
// bytes are no longer needed.
func (t *Toc) ReleaseDirectoryIndexBlob() { t.directoryIndex = nil }

// EntryIndex returns the position of id in the parallel chunk-id,
// offset-length and meta arrays, with an explicit presence boolean —
// never a falsy-zero fallback.
func (t *Toc) EntryIndex(id ChunkId) (int, bool) {
	i, ok := t.entryIndex[id]
	return i, ok
}

// OffsetAndLength returns the decoded offset/length pair for id.
func (t *Toc) OffsetAndLength(id ChunkId) (OffsetAndLength, bool) {
	i, ok := t.entryIndex[id]
	if !ok {
		return OffsetAndLength{}, false
	}
	return t.offsetLengths[i], true
}

// Meta returns the chunk-meta record for id, if the table was read.
func (t *Toc) Meta(id ChunkId) (ChunkMeta, bool) {
	i, ok := t.entryIndex[id]
	if !ok || i >= len(t.metas) {
		return ChunkMeta{}, false
	}
	return t.metas[i], true
}

// ChunkIds returns the full chunk-id table, in on-disk order.
func (t *Toc) ChunkIds() []ChunkId { return t.chunkIds }

// Stats is a read-only diagnostic summary; it parses nothing new, it just
// projects fields Read already captured.
type Stats struct {
	EntryCount           int
	BlockCount           int
	Methods              []string
	PartitionCount       uint32
	PartitionSize        uint64
	CompressionBlockSize uint32
	HasDirectoryIndex    bool
}

func (t *Toc) Stats() Stats {
	return Stats{
		EntryCount:           len(t.chunkIds),
		BlockCount:           len(t.blocks),
		Methods:              t.methods,
		PartitionCount:       t.Header.PartitionCount,
		PartitionSize:        t.Header.PartitionSize,
		CompressionBlockSize: t.Header.CompressionBlockSize,
		HasDirectoryIndex:    t.directoryIndex != nil,
	}
}

// Read parses a .utoc sidecar buffer into a Toc: header validation,
// partition-default synthesis, chunk-id table, offset/length table,
// compressed-block table, method-name table, optional signature block
// (skipped, never verified), optional directory-index blob (captured or
// skipped per opts), and optional meta table.
func Read(data []byte, opts ReadOptions) (*Toc, error) {
	r := ioread.New(data)

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	toc := &Toc{Header: header}

	if err := readChunkIds(r, toc); err != nil {
		return nil, err
	}
	if err := readOffsetLengths(r, toc); err != nil {
		return nil, err
	}
	if err := readBlocks(r, toc); err != nil {
		return nil, err
	}
	if err := readMethods(r, toc); err != nil {
		return nil, err
	}
	if err := skipSignatureBlock(r, toc); err != nil {
		return nil, err
	}
	if err := captureOrSkipDirectoryIndex(r, toc, opts); err != nil {
		return nil, err
	}
	if opts.ReadTocMeta {
		if err := readMetas(r, toc); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"version":     toc.Header.Version,
		"entries":     toc.Header.TocEntryCount,
		"blocks":      toc.Header.TocCompressedBlockEntryCount,
		"partitions":  toc.Header.PartitionCount,
		"hasDirIndex": toc.directoryIndex != nil,
	}).Debug("parsed toc")

	return toc, nil
}

func readHeader(r *ioread.Reader) (Header, error) {
	var h Header

	magic, err := r.ReadBytes(len(headerMagic))
	if err != nil {
		return h, err
	}
	if !bytes.Equal(magic, []byte(headerMagic)) {
		return h, &errkind.CorruptTocError{Reason: "magic mismatch"}
	}

	version, err := r.ReadU8()
	if err != nil {
		return h, err
	}
	h.Version = Version(version)
	if h.Version < VersionDirectoryIndex {
		return h, &errkind.CorruptTocError{Reason: "unsupported toc version"}
	}
	if h.Version > VersionPartitionSize {
		return h, &errkind.UnsupportedVersionError{Version: version}
	}

	if err := r.Advance(3); err != nil { // reserved byte + u16
		return h, err
	}

	tocHeaderSize, err := r.ReadU32()
	if err != nil {
		return h, err
	}
	if tocHeaderSize != headerSize {
		return h, &errkind.CorruptTocError{Reason: "tocHeaderSize != 144"}
	}
	h.TocHeaderSize = tocHeaderSize

	if h.TocEntryCount, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.TocCompressedBlockEntryCount, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.TocCompressedBlockEntrySize, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.TocCompressedBlockEntrySize != compressedBlockEntrySize {
		return h, &errkind.CorruptTocError{Reason: "tocCompressedBlockEntrySize != 12"}
	}
	if h.CompressionMethodNameCount, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.CompressionMethodNameLength, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.CompressionBlockSize, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.DirectoryIndexSize, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.PartitionCount, err = r.ReadU32(); err != nil {
		return h, err
	}

	containerId, err := r.ReadU64()
	if err != nil {
		return h, err
	}
	h.ContainerId = ContainerId(containerId)

	guidBytes, err := r.ReadBytes(16)
	if err != nil {
		return h, err
	}
	copy(h.EncryptionKeyGuid[:], guidBytes)

	flags, err := r.ReadU8()
	if err != nil {
		return h, err
	}
	h.ContainerFlags = ContainerFlags(flags)

	if err := r.Advance(7); err != nil { // reserved u8/u16/u32
		return h, err
	}

	if h.PartitionSize, err = r.ReadU64(); err != nil {
		return h, err
	}

	if err := r.Advance(6 * 8); err != nil { // six reserved u64 words
		return h, err
	}

	if h.Version < VersionPartitionSize {
		h.PartitionCount = 1
		h.PartitionSize = defaultPartitionSize
	}

	return h, nil
}

func readChunkIds(r *ioread.Reader, t *Toc) error {
	n := int(t.Header.TocEntryCount)
	t.chunkIds = make([]ChunkId, n)
	t.entryIndex = make(map[ChunkId]int, n)

	for i := 0; i < n; i++ {
		b, err := r.ReadBytes(chunkIdSize)
		if err != nil {
			return err
		}
		var id ChunkId
		copy(id[:], b)
		t.chunkIds[i] = id
		t.entryIndex[id] = i // later write wins on collision
	}
	return nil
}

func readOffsetLengths(r *ioread.Reader, t *Toc) error {
	ols, err := ioread.ReadArray(r, int(t.Header.TocEntryCount), func(r *ioread.Reader) (OffsetAndLength, error) {
		b, err := r.ReadBytes(offsetAndLengthSize)
		if err != nil {
			return OffsetAndLength{}, err
		}
		return decodeOffsetAndLength(b), nil
	})
	if err != nil {
		return err
	}
	t.offsetLengths = ols
	return nil
}

func readBlocks(r *ioread.Reader, t *Toc) error {
	blocks, err := ioread.ReadArray(r, int(t.Header.TocCompressedBlockEntryCount), func(r *ioread.Reader) (CompressedBlockEntry, error) {
		b, err := r.ReadBytes(compressedBlockEntrySize)
		if err != nil {
			return CompressedBlockEntry{}, err
		}
		return decodeCompressedBlockEntry(b), nil
	})
	if err != nil {
		return err
	}
	t.blocks = blocks
	return nil
}

func readMethods(r *ioread.Reader, t *Toc) error {
	t.methods = make([]string, 0, t.Header.CompressionMethodNameCount+1)
	t.methods = append(t.methods, "None")

	width := int(t.Header.CompressionMethodNameLength)
	for i := uint32(0); i < t.Header.CompressionMethodNameCount; i++ {
		b, err := r.ReadBytes(width)
		if err != nil {
			return err
		}
		nul := bytes.IndexByte(b, 0)
		if nul < 0 {
			nul = len(b)
		}
		t.methods = append(t.methods, string(b[:nul]))
	}
	return nil
}

func skipSignatureBlock(r *ioread.Reader, t *Toc) error {
	if !t.Header.ContainerFlags.Has(FlagSigned) {
		return nil
	}

	hashSize, err := r.ReadU32()
	if err != nil {
		return err
	}
	if err := r.Advance(int(hashSize) * 2); err != nil { // two hash buffers
		return err
	}
	return r.Advance(int(t.Header.TocCompressedBlockEntryCount) * 20) // SHA-1 signatures
}

func captureOrSkipDirectoryIndex(r *ioread.Reader, t *Toc, opts ReadOptions) error {
	if !t.Header.ContainerFlags.Has(FlagIndexed) || t.Header.DirectoryIndexSize == 0 {
		return nil
	}

	size := int(t.Header.DirectoryIndexSize)
	if !opts.ReadDirectoryIndex {
		return r.Advance(size)
	}

	b, err := r.ReadBytes(size)
	if err != nil {
		return err
	}
	t.directoryIndex = append([]byte(nil), b...) // own copy; the source buffer may be transient
	return nil
}

func readMetas(r *ioread.Reader, t *Toc) error {
	n := int(t.Header.TocEntryCount)
	t.metas = make([]ChunkMeta, n)
	for i := 0; i < n; i++ {
		hash, err := r.ReadBytes(32)
		if err != nil {
			return err
		}
		flags, err := r.ReadU8()
		if err != nil {
			return err
		}
		var m ChunkMeta
		copy(m.Hash[:], hash)
		m.Flags = flags
		t.metas[i] = m
	}
	return nil
}
