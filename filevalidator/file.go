package filevalidator

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

var errNoContent = errors.New("file has no content source")

// File is a candidate input: its declared metadata plus a way to read its bytes.
// The content is only opened by the signature stage.
type File struct {
	// Name is the file name as supplied by the caller.
	Name string

	// Size is the file size in bytes.
	Size int64

	// MIMEType is the declared (untrusted) type, e.g. a browser-reported type.
	MIMEType string

	open func() (io.ReadCloser, error)
}

// NewFile creates a File. When mimeType is empty the type implied by the
// file name's extension is used.
func NewFile(name string, size int64, mimeType string, open func() (io.ReadCloser, error)) *File {
	if mimeType == "" {
		mimeType = MIMETypeForFilename(name)
	}
	return &File{
		Name:     name,
		Size:     size,
		MIMEType: mimeType,
		open:     open,
	}
}

// NewFileFromBytes creates a File backed by an in-memory buffer
func NewFileFromBytes(name, mimeType string, data []byte) *File {
	return NewFile(name, int64(len(data)), mimeType, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// NewFileFromHeader creates a File from a multipart upload. The declared type
// is the part's Content-Type header.
func NewFileFromHeader(fh *multipart.FileHeader) *File {
	return NewFile(fh.Filename, fh.Size, fh.Header.Get("Content-Type"), func() (io.ReadCloser, error) {
		return fh.Open()
	})
}

// OpenFile creates a File for a path on the local filesystem. The declared
// type comes from the extension.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
	}

	return NewFile(filepath.Base(path), info.Size(), "", func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// Open returns a fresh reader over the file content
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errNoContent
	}
	return f.open()
}
