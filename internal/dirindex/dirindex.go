// Package dirindex parses the (possibly encrypted) directory-index blob
// captured by the TOC parser and walks it depth-first to yield
// (path, chunk-index) pairs.
package dirindex

import (
	log "github.com/sirupsen/logrus"

	"github.com/go-iostore/iostore/internal/aesecb"
	"github.com/go-iostore/iostore/internal/errkind"
	"github.com/go-iostore/iostore/internal/ioread"
	"github.com/go-iostore/iostore/internal/iotoc"
)

// NoneIndex is the "no reference" sentinel used by every cross-reference
// field in the blob.
const NoneIndex = 0xFFFFFFFF

// RootIndex is the directory-entry index of the root directory.
const RootIndex = 0

type directoryEntry struct {
	nameOffset  uint32
	firstChild  uint32
	nextSibling uint32
	firstFile   uint32
}

type fileEntry struct {
	nameOffset uint32
	nextFile   uint32
	userData   uint32
}

// Reader holds the parsed directory tree. Built once via New; immutable
// thereafter.
type Reader struct {
	mountPoint string
	dirs       []directoryEntry
	files      []fileEntry
	strings    []string
}

// New decrypts blob (when flags has Encrypted) and parses it into a Reader.
// An Encrypted container with a nil key fails with DecryptFailedError.
// blob's length must be a multiple of 16 when encrypted, by construction of
// the TOC's directory-index section.
func New(blob []byte, key *[32]byte, flags iotoc.ContainerFlags) (*Reader, error) {
	if flags.Has(iotoc.FlagEncrypted) {
		if key == nil {
			return nil, &errkind.DecryptFailedError{Reason: "directory index encrypted but no key provided"}
		}
		decrypted := make([]byte, len(blob))
		if err := aesecb.Decrypt(decrypted, blob, *key); err != nil {
			return nil, err
		}
		blob = decrypted
	}

	r := ioread.New(blob)

	mountPoint, err := readString(r)
	if err != nil {
		return nil, err
	}

	dirs, err := readDirectoryEntries(r)
	if err != nil {
		return nil, err
	}

	files, err := readFileEntries(r)
	if err != nil {
		return nil, err
	}

	strs, err := readStringPool(r)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"mountPoint": mountPoint,
		"dirs":       len(dirs),
		"files":      len(files),
	}).Debug("built directory index")

	return &Reader{mountPoint: mountPoint, dirs: dirs, files: files, strings: strs}, nil
}

// MountPoint returns the path prefix prepended to every emitted file path.
func (r *Reader) MountPoint() string { return r.mountPoint }

func readString(r *ioread.Reader) (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readDirectoryEntries(r *ioread.Reader) ([]directoryEntry, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	return ioread.ReadArray(r, int(n), func(r *ioread.Reader) (directoryEntry, error) {
		var e directoryEntry
		var err error
		if e.nameOffset, err = r.ReadU32(); err != nil {
			return e, err
		}
		if e.firstChild, err = r.ReadU32(); err != nil {
			return e, err
		}
		if e.nextSibling, err = r.ReadU32(); err != nil {
			return e, err
		}
		e.firstFile, err = r.ReadU32()
		return e, err
	})
}

func readFileEntries(r *ioread.Reader) ([]fileEntry, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	return ioread.ReadArray(r, int(n), func(r *ioread.Reader) (fileEntry, error) {
		var e fileEntry
		var err error
		if e.nameOffset, err = r.ReadU32(); err != nil {
			return e, err
		}
		if e.nextFile, err = r.ReadU32(); err != nil {
			return e, err
		}
		e.userData, err = r.ReadU32()
		return e, err
	})
}

func readStringPool(r *ioread.Reader) ([]string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	return ioread.ReadArray(r, int(n), readString)
}
