package chunkread

import (
	"bytes"
	"context"
	"crypto/aes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/go-iostore/iostore/internal/codec"
	"github.com/go-iostore/iostore/internal/iotoc"
)

const headerMagic = "-==--==--==--==-"

func buildHeader(entryCount, blockCount uint32, blockSize uint32, flags iotoc.ContainerFlags) []byte {
	buf := make([]byte, 144)
	copy(buf[0:16], headerMagic)
	buf[16] = byte(iotoc.VersionPartitionSize)
	binary.LittleEndian.PutUint32(buf[20:24], 144)
	binary.LittleEndian.PutUint32(buf[24:28], entryCount)
	binary.LittleEndian.PutUint32(buf[28:32], blockCount)
	binary.LittleEndian.PutUint32(buf[32:36], 12)
	binary.LittleEndian.PutUint32(buf[44:48], blockSize)
	binary.LittleEndian.PutUint32(buf[52:56], 1) // partitionCount
	buf[80] = byte(flags)
	binary.LittleEndian.PutUint64(buf[88:96], 1<<40) // partitionSize
	return buf
}

func putChunkId(seed byte) iotoc.ChunkId {
	var id iotoc.ChunkId
	for i := range id {
		id[i] = seed
	}
	return id
}

func putOffsetAndLength(offset, length uint64) []byte {
	b := make([]byte, 10)
	b[0] = byte(offset >> 32)
	b[1] = byte(offset >> 24)
	b[2] = byte(offset >> 16)
	b[3] = byte(offset >> 8)
	b[4] = byte(offset)
	b[5] = byte(length >> 32)
	b[6] = byte(length >> 24)
	b[7] = byte(length >> 16)
	b[8] = byte(length >> 8)
	b[9] = byte(length)
	return b
}

func putCompressedBlockEntry(offset uint64, compressedSize, uncompressedSize uint32, methodIndex uint8) []byte {
	b := make([]byte, 12)
	var word8 [8]byte
	binary.LittleEndian.PutUint64(word8[:], offset&0x000000FFFFFFFFFF)
	copy(b[0:8], word8[:])
	word4 := binary.LittleEndian.Uint32(b[4:8])
	word4 |= (compressedSize & 0xFFFFFF) << 8
	binary.LittleEndian.PutUint32(b[4:8], word4)
	word8v := (uncompressedSize & 0xFFFFFF) | uint32(methodIndex)<<24
	binary.LittleEndian.PutUint32(b[8:12], word8v)
	return b
}

// fakePartitionSource serves reads from a single in-memory partition.
type fakePartitionSource struct {
	data []byte
}

func (f *fakePartitionSource) ReadAt(partitionIndex int, offset int64, buf []byte) (int, error) {
	return copy(buf, f.data[offset:offset+int64(len(buf))]), nil
}

func TestReadPlainSingleBlock(t *testing.T) {
	id := putChunkId(0xAA)
	blockSize := uint32(0x10000)

	var toc bytes.Buffer
	toc.Write(buildHeader(1, 1, blockSize, 0))
	toc.Write(id[:])
	toc.Write(putOffsetAndLength(0, 7))
	toc.Write(putCompressedBlockEntry(0, 7, 7, 0))

	parsed, err := iotoc.Read(toc.Bytes(), iotoc.ReadOptions{})
	if err != nil {
		t.Fatalf("iotoc.Read: %v", err)
	}

	// rawSize rounds the 7 compressed bytes up to 16, so the on-disk slot
	// must hold at least that much.
	payload := []byte("ABCDEFGhijklmnop")
	src := &fakePartitionSource{data: payload}

	dst := make([]byte, 7)
	n, err := Read(context.Background(), parsed, src, nil, codec.NewDefaultRegistry(), id, dst, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 7 || string(dst) != "ABCDEFG" {
		t.Fatalf("Read = %q (n=%d), want %q", dst, n, "ABCDEFG")
	}
}

func TestReadCrossBlock(t *testing.T) {
	id := putChunkId(0xBB)
	blockSize := uint32(0x10000)

	var toc bytes.Buffer
	toc.Write(buildHeader(1, 2, blockSize, 0))
	toc.Write(id[:])
	toc.Write(putOffsetAndLength(0xFFFF, 0x10001))
	toc.Write(putCompressedBlockEntry(0, blockSize, blockSize, 0))
	toc.Write(putCompressedBlockEntry(uint64(blockSize), blockSize, blockSize, 0))

	parsed, err := iotoc.Read(toc.Bytes(), iotoc.ReadOptions{})
	if err != nil {
		t.Fatalf("iotoc.Read: %v", err)
	}

	block0 := bytes.Repeat([]byte{0x01}, int(blockSize))
	block1 := bytes.Repeat([]byte{0x02}, int(blockSize))
	payload := append(append([]byte{}, block0...), block1...)
	src := &fakePartitionSource{data: payload}

	dst := make([]byte, 0x10001)
	n, err := Read(context.Background(), parsed, src, nil, codec.NewDefaultRegistry(), id, dst, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 0x10001 {
		t.Fatalf("n = %d, want %d", n, 0x10001)
	}
	if dst[0] != 0x01 {
		t.Fatalf("first byte = %#x, want 0x01 (last byte of block 0)", dst[0])
	}
	for i := 1; i < len(dst); i++ {
		if dst[i] != 0x02 {
			t.Fatalf("dst[%d] = %#x, want 0x02", i, dst[i])
		}
	}
}

func TestReadEncryptedCompressedBlock(t *testing.T) {
	id := putChunkId(0xCC)
	blockSize := uint32(0x10000)

	plaintext := make([]byte, 200)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(plaintext); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	compressedSize := uint32(compressed.Len())

	// The on-disk frame is the compressed bytes padded to 16 and encrypted
	// whole, padding included.
	rawSize := (compressedSize + 15) &^ 15
	frame := make([]byte, rawSize)
	copy(frame, compressed.Bytes())

	var key [32]byte
	for i := range key {
		key[i] = byte(0x40 + i)
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	for off := 0; off < len(frame); off += aes.BlockSize {
		block.Encrypt(frame[off:off+aes.BlockSize], frame[off:off+aes.BlockSize])
	}

	var toc bytes.Buffer
	header := buildHeader(1, 1, blockSize, iotoc.FlagEncrypted)
	binary.LittleEndian.PutUint32(header[36:40], 1) // compressionMethodNameCount
	binary.LittleEndian.PutUint32(header[40:44], 8) // compressionMethodNameLength
	toc.Write(header)
	toc.Write(id[:])
	toc.Write(putOffsetAndLength(16, 100))
	toc.Write(putCompressedBlockEntry(0, compressedSize, 200, 1))
	methodName := make([]byte, 8)
	copy(methodName, "Zlib")
	toc.Write(methodName)

	parsed, err := iotoc.Read(toc.Bytes(), iotoc.ReadOptions{})
	if err != nil {
		t.Fatalf("iotoc.Read: %v", err)
	}

	src := &fakePartitionSource{data: frame}
	dst := make([]byte, 100)
	n, err := Read(context.Background(), parsed, src, &key, codec.NewDefaultRegistry(), id, dst, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 100 || !bytes.Equal(dst, plaintext[16:116]) {
		t.Fatalf("Read returned wrong sub-range (n=%d)", n)
	}
}

func TestReadHonorsCancellation(t *testing.T) {
	id := putChunkId(0xDD)
	blockSize := uint32(0x10000)

	var toc bytes.Buffer
	toc.Write(buildHeader(1, 1, blockSize, 0))
	toc.Write(id[:])
	toc.Write(putOffsetAndLength(0, 7))
	toc.Write(putCompressedBlockEntry(0, 7, 7, 0))

	parsed, err := iotoc.Read(toc.Bytes(), iotoc.ReadOptions{})
	if err != nil {
		t.Fatalf("iotoc.Read: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakePartitionSource{data: make([]byte, 16)}
	_, err = Read(ctx, parsed, src, nil, codec.NewDefaultRegistry(), id, make([]byte, 7), nil)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestReadUnknownChunk(t *testing.T) {
	var toc bytes.Buffer
	toc.Write(buildHeader(0, 0, 0x10000, 0))
	parsed, err := iotoc.Read(toc.Bytes(), iotoc.ReadOptions{})
	if err != nil {
		t.Fatalf("iotoc.Read: %v", err)
	}

	src := &fakePartitionSource{data: []byte{}}
	_, err = Read(context.Background(), parsed, src, nil, codec.NewDefaultRegistry(), putChunkId(0x99), make([]byte, 1), nil)
	if err == nil {
		t.Fatalf("expected UnknownChunk error")
	}
}
