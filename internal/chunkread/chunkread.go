// Package chunkread implements the chunk-read pipeline: resolve a chunk id
// to an (offset, length), stream the covering compression blocks, decrypt,
// decompress, and copy the requested sub-range into the caller's buffer.
package chunkread

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/go-iostore/iostore/internal/aesecb"
	"github.com/go-iostore/iostore/internal/codec"
	"github.com/go-iostore/iostore/internal/errkind"
	"github.com/go-iostore/iostore/internal/iotoc"
)

// PartitionSource supplies positional reads into a container's open
// partition files.
type PartitionSource interface {
	ReadAt(partitionIndex int, offset int64, buf []byte) (int, error)
}

// Scratch holds reusable buffers for the per-block raw and decompressed
// frames, an optional pooled-buffer path; callers who don't care may pass
// nil and get per-call allocation instead.
type Scratch struct {
	raw        []byte
	decompress []byte
}

func (s *Scratch) rawBuf(n int) []byte {
	if cap(s.raw) < n {
		s.raw = make([]byte, n)
	}
	return s.raw[:n]
}

func (s *Scratch) decompressBuf(n int) []byte {
	if cap(s.decompress) < n {
		s.decompress = make([]byte, n)
	}
	return s.decompress[:n]
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}

// Read resolves id via toc, streams its covering compression blocks from
// src, decrypts with key when the container is Encrypted, decompresses via
// codecs, and copies the requested range into dst. dst must be at least
// as long as the chunk's logical length; Read returns the number of bytes
// written.
func Read(ctx context.Context, toc *iotoc.Toc, src PartitionSource, key *[32]byte, codecs *codec.Registry, id iotoc.ChunkId, dst []byte, scratch *Scratch) (int, error) {
	ol, ok := toc.OffsetAndLength(id)
	if !ok {
		return 0, &errkind.UnknownChunkError{ChunkId: id}
	}
	if uint64(len(dst)) < ol.Length {
		return 0, &errkind.UnsupportedError{Reason: "destination buffer smaller than chunk length"}
	}

	if scratch == nil {
		scratch = &Scratch{}
	}

	blockSize := uint64(toc.CompressionBlockSize())
	partitionSize := toc.PartitionSize()
	flags := toc.Header.ContainerFlags
	methods := toc.Methods()

	firstBlock := ol.Offset / blockSize
	lastBlock := (alignUp(ol.Offset+ol.Length, blockSize) - 1) / blockSize

	offsetInBlock := ol.Offset % blockSize
	remaining := ol.Length
	dstCursor := uint64(0)

	for b := firstBlock; b <= lastBlock; b++ {
		if err := ctx.Err(); err != nil {
			return int(dstCursor), err
		}

		block := toc.Block(int(b))

		log.WithFields(log.Fields{
			"chunk":     id,
			"block":     b,
			"partition": block.Offset / partitionSize,
			"method":    block.CompressionMethodIndex,
		}).Debug("reading block")

		rawSize := alignUp(uint64(block.CompressedSize), 16)
		raw := scratch.rawBuf(int(rawSize))

		partitionIndex := int(block.Offset / partitionSize)
		partitionOffset := int64(block.Offset % partitionSize)

		n, err := src.ReadAt(partitionIndex, partitionOffset, raw)
		if err != nil {
			return int(dstCursor), err
		}
		if n != len(raw) {
			return int(dstCursor), &errkind.ShortReadError{Want: len(raw), Got: n}
		}

		if flags.Has(iotoc.FlagEncrypted) {
			if key == nil {
				return int(dstCursor), &errkind.DecryptFailedError{Reason: "container encrypted but no key resolved"}
			}
			if err := aesecb.DecryptInPlace(raw, *key); err != nil {
				return int(dstCursor), err
			}
		}

		var source []byte
		if block.CompressionMethodIndex == 0 {
			source = raw
		} else {
			if int(block.CompressionMethodIndex) >= len(methods) {
				return int(dstCursor), &errkind.UnsupportedCodecError{Method: "<out of range>"}
			}
			method := methods[block.CompressionMethodIndex]
			decompressed := scratch.decompressBuf(int(block.UncompressedSize))
			n, err := codecs.Decompress(method, decompressed, raw[:block.CompressedSize], int(block.UncompressedSize))
			if err != nil {
				return int(dstCursor), err
			}
			source = decompressed[:n]
		}

		copyLen := blockSize - offsetInBlock
		if copyLen > remaining {
			copyLen = remaining
		}
		copy(dst[dstCursor:dstCursor+copyLen], source[offsetInBlock:offsetInBlock+copyLen])

		offsetInBlock = 0
		remaining -= copyLen
		dstCursor += copyLen
	}

	return int(dstCursor), nil
}
