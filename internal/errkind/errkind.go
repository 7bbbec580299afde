// Package errkind defines the typed error values the core surfaces to
// callers, per the propagation policy: no error is recovered inside the
// core, and every failure carries enough context to reproduce it.
package errkind

import "fmt"

// Kind categorizes an error for callers that want to branch without a type
// switch over every struct below.
type Kind int

const (
	KindCorruptToc Kind = iota
	KindUnsupportedVersion
	KindMissingKey
	KindUnknownChunk
	KindUnsupported
	KindContainerOpenFailed
	KindShortRead
	KindDecompressFailed
	KindDecryptFailed
	KindUnsupportedCodec
)

func (k Kind) String() string {
	switch k {
	case KindCorruptToc:
		return "CorruptToc"
	case KindUnsupportedVersion:
		return "UnsupportedVersion"
	case KindMissingKey:
		return "MissingKey"
	case KindUnknownChunk:
		return "UnknownChunk"
	case KindUnsupported:
		return "Unsupported"
	case KindContainerOpenFailed:
		return "ContainerOpenFailed"
	case KindShortRead:
		return "ShortRead"
	case KindDecompressFailed:
		return "DecompressFailed"
	case KindDecryptFailed:
		return "DecryptFailed"
	case KindUnsupportedCodec:
		return "UnsupportedCodec"
	default:
		return "Unknown"
	}
}

// CorruptTocError indicates the TOC sidecar failed a structural check:
// magic mismatch, wrong header/block-entry size, or unsupported version.
type CorruptTocError struct {
	Reason string
}

func (e *CorruptTocError) Error() string { return "corrupt toc: " + e.Reason }
func (e *CorruptTocError) Kind() Kind    { return KindCorruptToc }

// UnsupportedVersionError indicates the TOC version is above the known
// maximum this parser understands.
type UnsupportedVersionError struct {
	Version uint8
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported toc version %d", e.Version)
}
func (e *UnsupportedVersionError) Kind() Kind { return KindUnsupportedVersion }

// MissingKeyError indicates the container is encrypted and the resolver
// has no key for the container's encryption guid.
type MissingKeyError struct {
	Guid fmt.Stringer
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing decryption key for guid %v", e.Guid)
}
func (e *MissingKeyError) Kind() Kind { return KindMissingKey }

// UnknownChunkError indicates a chunk id is not present in the TOC's
// chunk-id index.
type UnknownChunkError struct {
	ChunkId fmt.Stringer
}

func (e *UnknownChunkError) Error() string {
	return fmt.Sprintf("unknown chunk id %v", e.ChunkId)
}
func (e *UnknownChunkError) Kind() Kind { return KindUnknownChunk }

// UnsupportedError indicates an operation that this implementation
// deliberately does not support, such as multi-partition mounting through
// the in-memory entry point.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string { return "unsupported: " + e.Reason }
func (e *UnsupportedError) Kind() Kind    { return KindUnsupported }

// ContainerOpenFailedError wraps an OS error encountered while opening a
// sidecar or partition file.
type ContainerOpenFailedError struct {
	Path  string
	Cause error
}

func (e *ContainerOpenFailedError) Error() string {
	return fmt.Sprintf("open container file %q: %v", e.Path, e.Cause)
}
func (e *ContainerOpenFailedError) Unwrap() error { return e.Cause }
func (e *ContainerOpenFailedError) Kind() Kind    { return KindContainerOpenFailed }

// ShortReadError indicates a partition read returned fewer bytes than
// requested.
type ShortReadError struct {
	Want, Got int
	Cause     error
}

func (e *ShortReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("short read: wanted %d bytes, got %d: %v", e.Want, e.Got, e.Cause)
	}
	return fmt.Sprintf("short read: wanted %d bytes, got %d", e.Want, e.Got)
}
func (e *ShortReadError) Unwrap() error { return e.Cause }
func (e *ShortReadError) Kind() Kind    { return KindShortRead }

// DecompressFailedError indicates a codec backend could not produce the
// expected number of uncompressed bytes.
type DecompressFailedError struct {
	Method        string
	Expected, Got int
	Reason        string
	Cause         error
}

func (e *DecompressFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("decompress %q: expected %d bytes: %s", e.Method, e.Expected, e.Reason)
	}
	return fmt.Sprintf("decompress %q: expected %d bytes, got %d: %v", e.Method, e.Expected, e.Got, e.Cause)
}
func (e *DecompressFailedError) Unwrap() error { return e.Cause }
func (e *DecompressFailedError) Kind() Kind    { return KindDecompressFailed }

// DecryptFailedError indicates decryption could not run: an unaligned
// ciphertext length, a destination shorter than the source, a cipher
// construction failure, or an encrypted container with no resolved key.
type DecryptFailedError struct {
	Reason string
}

func (e *DecryptFailedError) Error() string { return "decrypt failed: " + e.Reason }
func (e *DecryptFailedError) Kind() Kind    { return KindDecryptFailed }

// UnsupportedCodecError indicates a compression method name has no
// registered backend.
type UnsupportedCodecError struct {
	Method string
}

func (e *UnsupportedCodecError) Error() string {
	return fmt.Sprintf("unsupported compression codec %q", e.Method)
}
func (e *UnsupportedCodecError) Kind() Kind { return KindUnsupportedCodec }
