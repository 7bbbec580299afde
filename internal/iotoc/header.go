package iotoc

const (
	headerMagic              = "-==--==--==--==-"
	headerSize               = 144
	compressedBlockEntrySize = 12
	chunkIdSize              = 12
	offsetAndLengthSize      = 10
	defaultPartitionSize     = 0x0FFFFFFFFFFFFFFF
)

// Header is the 144-byte fixed-layout TOC header.
type Header struct {
	Version                      Version
	TocHeaderSize                uint32
	TocEntryCount                uint32
	TocCompressedBlockEntryCount uint32
	TocCompressedBlockEntrySize  uint32
	CompressionMethodNameCount   uint32
	CompressionMethodNameLength  uint32
	CompressionBlockSize         uint32
	DirectoryIndexSize           uint32
	PartitionCount               uint32
	ContainerId                  ContainerId
	EncryptionKeyGuid            Guid
	ContainerFlags               ContainerFlags
	PartitionSize                uint64
}
