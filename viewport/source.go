package viewport

import "fmt"

// SourceKind tags the variant held by a Source.
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceMemory
	SourcePasswordProtected
)

func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceMemory:
		return "memory"
	case SourcePasswordProtected:
		return "password-protected"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Source identifies a document. It is a tagged variant: a file path, an
// in-memory byte slice, or a password wrapper around one of those two.
// The zero value is not a valid source.
type Source struct {
	kind     SourceKind
	path     string
	name     string
	data     []byte
	password string
	inner    *Source
}

// FileSource returns a source backed by the file or directory at path.
func FileSource(path string) Source {
	return Source{kind: SourceFile, path: path, name: path}
}

// MemorySource returns a source backed by data. name is used to pick a
// decoder (by extension) and in messages.
func MemorySource(name string, data []byte) Source {
	return Source{kind: SourceMemory, name: name, data: data}
}

// PasswordProtected wraps inner with a password. Wrapping an already
// protected source fails with ErrInvalidSourceComposition.
func PasswordProtected(inner Source, password string) (Source, error) {
	if inner.kind == SourcePasswordProtected {
		return Source{}, ErrInvalidSourceComposition
	}
	in := inner
	return Source{kind: SourcePasswordProtected, name: inner.name, password: password, inner: &in}, nil
}

// Kind returns the variant tag.
func (s Source) Kind() SourceKind { return s.kind }

// Name returns a display name for the source.
func (s Source) Name() string { return s.name }

// Path returns the file path of a file-backed source (unwrapping a
// password wrapper), or "" for memory sources.
func (s Source) Path() string { return s.Unwrap().path }

// Data returns the bytes of a memory-backed source (unwrapping a password
// wrapper), or nil for file sources.
func (s Source) Data() []byte { return s.Unwrap().data }

// Password returns the password carried by a wrapper, or "".
func (s Source) Password() string {
	if s.kind == SourcePasswordProtected {
		return s.password
	}
	return ""
}

// Unwrap returns the wrapped source, or s itself when s is not a wrapper.
func (s Source) Unwrap() Source {
	if s.kind == SourcePasswordProtected && s.inner != nil {
		return *s.inner
	}
	return s
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s", s.kind, s.name)
}
