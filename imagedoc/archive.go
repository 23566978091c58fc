package imagedoc

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"

	"nvdoc/viewport"
)

type format int

const (
	formatImage format = iota
	formatDir
	formatZip
	formatRar
	format7z
)

func (f format) String() string {
	switch f {
	case formatImage:
		return "image"
	case formatDir:
		return "directory"
	case formatZip:
		return "zip"
	case formatRar:
		return "rar"
	case format7z:
		return "7z"
	default:
		return "unknown"
	}
}

// Entry is one page of a document: an image file or an archive member.
type Entry struct {
	Name string // archive member name or file path
	Path string // file path for directory entries, "" otherwise
}

func isArchiveExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".cbz", ".rar", ".cbr", ".7z", ".cb7":
		return true
	default:
		return false
	}
}

func isSupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif":
		return true
	default:
		return false
	}
}

// detectFormat picks the container format of src.
func detectFormat(src viewport.Source) (format, error) {
	name := src.Name()
	if src.Unwrap().Kind() == viewport.SourceFile {
		info, err := os.Stat(src.Path())
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return 0, fmt.Errorf("%s: %w", src.Path(), viewport.ErrSourceNotFound)
			}
			return 0, err
		}
		if info.IsDir() {
			return formatDir, nil
		}
		name = src.Path()
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip", ".cbz":
		return formatZip, nil
	case ".rar", ".cbr":
		return formatRar, nil
	case ".7z", ".cb7":
		return format7z, nil
	}
	if isSupportedExt(name) {
		return formatImage, nil
	}
	return 0, &viewport.DecodeError{Page: -1, Err: fmt.Errorf("unsupported document format: %s", name)}
}

// looksEncrypted reports whether an archive library error is about
// encryption. rardecode and sevenzip only expose this in their messages.
func looksEncrypted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// listEntries returns the image entries of src in container order.
func listEntries(f format, src viewport.Source, password string) ([]Entry, error) {
	switch f {
	case formatImage:
		return []Entry{{Name: src.Name(), Path: src.Path()}}, nil
	case formatDir:
		return listDirectory(src.Path())
	case formatZip:
		return listZip(src)
	case formatRar:
		return listRar(src, password)
	case format7z:
		return list7z(src, password)
	default:
		return nil, fmt.Errorf("unsupported format %v", f)
	}
}

func listDirectory(dir string) ([]Entry, error) {
	var entries []Entry
	err := filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && isSupportedExt(path) {
			rel, _ := filepath.Rel(dir, path)
			entries = append(entries, Entry{Name: filepath.ToSlash(rel), Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func openZip(src viewport.Source) (*zip.Reader, io.Closer, error) {
	if data := src.Data(); data != nil {
		r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		return r, io.NopCloser(nil), err
	}
	rc, err := zip.OpenReader(src.Path())
	if err != nil {
		return nil, nil, err
	}
	return &rc.Reader, rc, nil
}

func listZip(src viewport.Source) ([]Entry, error) {
	r, c, err := openZip(src)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var entries []Entry
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			entries = append(entries, Entry{Name: f.Name})
		}
	}
	return entries, nil
}

func readZip(src viewport.Source, name string) ([]byte, error) {
	r, c, err := openZip(src)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", name, src.Name())
}

func openRar(src viewport.Source, password string) (*rardecode.Reader, io.Closer, error) {
	if data := src.Data(); data != nil {
		r, err := rardecode.NewReader(bytes.NewReader(data), password)
		return r, io.NopCloser(nil), err
	}
	f, err := os.Open(src.Path())
	if err != nil {
		return nil, nil, err
	}
	r, err := rardecode.NewReader(f, password)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f, nil
}

func listRar(src viewport.Source, password string) ([]Entry, error) {
	r, c, err := openRar(src, password)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var entries []Entry
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !header.IsDir && isSupportedExt(header.Name) {
			entries = append(entries, Entry{Name: header.Name})
		}
	}
	return entries, nil
}

func readRar(src viewport.Source, password, name string) ([]byte, error) {
	r, c, err := openRar(src, password)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == name {
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", name, src.Name())
}

func open7z(src viewport.Source, password string) (*sevenzip.Reader, io.Closer, error) {
	if data := src.Data(); data != nil {
		r, err := sevenzip.NewReaderWithPassword(bytes.NewReader(data), int64(len(data)), password)
		return r, io.NopCloser(nil), err
	}
	rc, err := sevenzip.OpenReaderWithPassword(src.Path(), password)
	if err != nil {
		return nil, nil, err
	}
	return &rc.Reader, rc, nil
}

func list7z(src viewport.Source, password string) ([]Entry, error) {
	r, c, err := open7z(src, password)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var entries []Entry
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			entries = append(entries, Entry{Name: f.Name})
		}
	}
	return entries, nil
}

func read7z(src viewport.Source, password, name string) ([]byte, error) {
	r, c, err := open7z(src, password)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", name, src.Name())
}

// readEntry returns the encoded bytes of entry e.
func readEntry(f format, src viewport.Source, password string, e Entry) ([]byte, error) {
	switch f {
	case formatImage:
		if data := src.Data(); data != nil {
			return data, nil
		}
		return os.ReadFile(e.Path)
	case formatDir:
		return os.ReadFile(e.Path)
	case formatZip:
		return readZip(src, e.Name)
	case formatRar:
		return readRar(src, password, e.Name)
	case format7z:
		return read7z(src, password, e.Name)
	default:
		return nil, fmt.Errorf("unsupported format %v", f)
	}
}

// scanEntries streams the image entries of src in container order, handing
// each one's name and contents to visit. The container is opened once, so
// solid rar and 7z archives are decompressed in a single pass.
func scanEntries(ctx context.Context, f format, src viewport.Source, password string, visit func(name string, r io.Reader) error) error {
	switch f {
	case formatImage:
		if data := src.Data(); data != nil {
			return visit(src.Name(), bytes.NewReader(data))
		}
		return visitFile(src.Name(), src.Path(), visit)
	case formatDir:
		entries, err := listDirectory(src.Path())
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := visitFile(e.Name, e.Path, visit); err != nil {
				return err
			}
		}
		return nil
	case formatZip:
		r, c, err := openZip(src)
		if err != nil {
			return err
		}
		defer c.Close()
		for _, zf := range r.File {
			if zf.FileInfo().IsDir() || !isSupportedExt(zf.Name) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := zf.Open()
			if err != nil {
				return err
			}
			err = visit(zf.Name, rc)
			rc.Close()
			if err != nil {
				return err
			}
		}
		return nil
	case formatRar:
		r, c, err := openRar(src, password)
		if err != nil {
			return err
		}
		defer c.Close()
		for {
			header, err := r.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if header.IsDir || !isSupportedExt(header.Name) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := visit(header.Name, r); err != nil {
				return err
			}
		}
	case format7z:
		r, c, err := open7z(src, password)
		if err != nil {
			return err
		}
		defer c.Close()
		for _, sf := range r.File {
			if sf.FileInfo().IsDir() || !isSupportedExt(sf.Name) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := sf.Open()
			if err != nil {
				return err
			}
			err = visit(sf.Name, rc)
			rc.Close()
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %v", f)
	}
}

func visitFile(name, path string, visit func(string, io.Reader) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return visit(name, fh)
}
