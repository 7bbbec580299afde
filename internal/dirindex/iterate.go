package dirindex

import "strings"

// Iterate walks the tree depth-first starting at the directory-entry index
// start, joining mount point, prefix, and each path component with exactly
// one "/" between them regardless of whether components already end or
// begin with "/" or "\". For each file entry it calls fn(path, userData);
// returning false from fn terminates the walk early.
func (r *Reader) Iterate(start int, prefix string, fn func(path string, chunkIndex uint32) bool) {
	r.walk(start, prefix, fn)
}

// walk returns false if the caller's callback asked to stop, so the
// recursion can unwind immediately.
func (r *Reader) walk(dirIdx int, prefix string, fn func(path string, chunkIndex uint32) bool) bool {
	if dirIdx < 0 || uint32(dirIdx) == NoneIndex || dirIdx >= len(r.dirs) {
		return true
	}
	dir := r.dirs[dirIdx]

	for fi := dir.firstFile; fi != NoneIndex; {
		file := r.files[fi]
		path := joinPath(r.mountPoint, prefix, r.name(file.nameOffset))
		if !fn(path, file.userData) {
			return false
		}
		fi = file.nextFile
	}

	for ci := dir.firstChild; ci != NoneIndex; {
		child := r.dirs[ci]
		childPrefix := joinPath(prefix, r.name(child.nameOffset)) + "/"
		if !r.walk(int(ci), childPrefix, fn) {
			return false
		}
		ci = child.nextSibling
	}

	return true
}

func (r *Reader) name(offset uint32) string {
	if offset == NoneIndex || int(offset) >= len(r.strings) {
		return ""
	}
	return r.strings[offset]
}

// joinPath concatenates path components, canonicalizing any pre-existing
// "\" separator to "/" and ensuring exactly one separator between
// components.
func joinPath(components ...string) string {
	var b strings.Builder
	for _, c := range components {
		if c == "" {
			continue
		}
		c = strings.ReplaceAll(c, "\\", "/")
		if b.Len() > 0 {
			cur := b.String()
			needsSep := !strings.HasSuffix(cur, "/") && !strings.HasPrefix(c, "/")
			trimLeft := strings.HasSuffix(cur, "/") && strings.HasPrefix(c, "/")
			if needsSep {
				b.WriteByte('/')
			} else if trimLeft {
				c = strings.TrimPrefix(c, "/")
			}
		}
		b.WriteString(c)
	}
	return b.String()
}
