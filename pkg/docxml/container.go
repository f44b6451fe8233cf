package docxml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// Container is the package boundary the engine reads from and stages into.
type Container interface {
	ListParts() []string
	ReadPart(name string) ([]byte, error)
	Exists(name string) bool
}

// PackageReader reads parts out of a zip-contained package.
type PackageReader struct {
	reader *zip.Reader
	parts  map[string]*zip.File
	order  []string
}

// NewPackageReader opens a package from a readerAt.
func NewPackageReader(r io.ReaderAt, size int64) (*PackageReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, NewPackageIOError("open", "", err)
	}

	pr := &PackageReader{
		reader: zipReader,
		parts:  make(map[string]*zip.File),
	}
	for _, file := range zipReader.File {
		pr.parts[file.Name] = file
		pr.order = append(pr.order, file.Name)
	}

	if _, ok := pr.parts["word/document.xml"]; !ok {
		return nil, NewPackageIOError("open", "word/document.xml",
			fmt.Errorf("not a valid package: missing main document part"))
	}
	return pr, nil
}

// PackageReaderFromFile opens a package from disk.
func PackageReaderFromFile(path string) (*PackageReader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, NewPackageIOError("read", path, err)
	}
	return NewPackageReader(bytes.NewReader(content), int64(len(content)))
}

// ListParts returns all part names in archive order.
func (pr *PackageReader) ListParts() []string {
	out := make([]string, len(pr.order))
	copy(out, pr.order)
	return out
}

// Exists reports whether a part is present.
func (pr *PackageReader) Exists(name string) bool {
	_, ok := pr.parts[name]
	return ok
}

// ReadPart retrieves the content of a part.
func (pr *PackageReader) ReadPart(name string) ([]byte, error) {
	file, ok := pr.parts[name]
	if !ok {
		return nil, NewPackageIOError("read", name, fmt.Errorf("part not found"))
	}
	rc, err := file.Open()
	if err != nil {
		return nil, NewPackageIOError("read", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, NewPackageIOError("read", name, err)
	}
	return content, nil
}

// MemoryContainer is an in-memory part set used for staging and tests.
type MemoryContainer struct {
	parts map[string][]byte
	order []string
}

// NewMemoryContainer creates an empty part set.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{parts: make(map[string][]byte)}
}

// ListParts returns part names in insertion order.
func (m *MemoryContainer) ListParts() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Exists reports whether a part is present.
func (m *MemoryContainer) Exists(name string) bool {
	_, ok := m.parts[name]
	return ok
}

// ReadPart retrieves the content of a part.
func (m *MemoryContainer) ReadPart(name string) ([]byte, error) {
	data, ok := m.parts[name]
	if !ok {
		return nil, NewPackageIOError("read", name, fmt.Errorf("part not found"))
	}
	return data, nil
}

// WritePart stores a part, preserving insertion order for new names.
func (m *MemoryContainer) WritePart(name string, data []byte) {
	if _, ok := m.parts[name]; !ok {
		m.order = append(m.order, name)
	}
	m.parts[name] = data
}

// DeletePart removes a part.
func (m *MemoryContainer) DeletePart(name string) {
	if _, ok := m.parts[name]; !ok {
		return
	}
	delete(m.parts, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// SortParts orders parts by name; used only when no source ordering exists.
func (m *MemoryContainer) SortParts() {
	sort.Strings(m.order)
}

// WritePackage writes the staged part set as a zip package.
func WritePackage(w io.Writer, parts *MemoryContainer, compress bool) error {
	zw := zip.NewWriter(w)
	method := zip.Deflate
	if !compress {
		method = zip.Store
	}
	for _, name := range parts.ListParts() {
		data, err := parts.ReadPart(name)
		if err != nil {
			return err
		}
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			return NewPackageIOError("write", name, err)
		}
		if _, err := f.Write(data); err != nil {
			return NewPackageIOError("write", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return NewPackageIOError("write", "", err)
	}
	return nil
}

// CommitPackageFile writes the staged part set to disk atomically: the
// package is built in a temp file next to the target and renamed over it.
// On any failure the temp artifact is removed and the original error is
// returned unchanged.
func CommitPackageFile(path string, parts *MemoryContainer, compress bool) error {
	dir := filepath.Dir(path)
	tempPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	f, err := os.Create(tempPath)
	if err != nil {
		return NewPackageIOError("stage", tempPath, err)
	}

	if err := WritePackage(f, parts, compress); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return NewPackageIOError("stage", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return NewPackageIOError("commit", path, err)
	}
	return nil
}
