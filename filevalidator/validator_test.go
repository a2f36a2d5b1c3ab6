package filevalidator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gobeaver/imgconvert/sniffer"
)

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}
	pngHeader  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
)

// sizedFile declares a size without backing content
func sizedFile(name, mimeType string, size int64) *File {
	return NewFile(name, size, mimeType, nil)
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name      string
		file      *File
		wantValid bool
		wantType  ValidationErrorType
		errorMsg  string
	}{
		{
			name:      "no file",
			file:      nil,
			wantValid: false,
			wantType:  ErrorTypeMissing,
			errorMsg:  "No file selected",
		},
		{
			name:      "size exactly at ceiling",
			file:      sizedFile("photo.jpg", "image/jpeg", 50*MB),
			wantValid: true,
		},
		{
			name:      "one byte over ceiling",
			file:      sizedFile("photo.jpg", "image/jpeg", 50*MB+1),
			wantValid: false,
			wantType:  ErrorTypeSize,
			errorMsg:  "50 MB",
		},
		{
			name:      "size checked before type",
			file:      sizedFile("notes.txt", "text/plain", 60*MB),
			wantValid: false,
			wantType:  ErrorTypeSize,
		},
		{
			name:      "unsupported declared type",
			file:      sizedFile("notes.txt", "text/plain", 10),
			wantValid: false,
			wantType:  ErrorTypeMIME,
			errorMsg:  "Invalid file type",
		},
		{
			name:      "empty declared type without extension",
			file:      sizedFile("blob", "", 10),
			wantValid: false,
			wantType:  ErrorTypeMIME,
		},
		{
			name:      "declared type from extension",
			file:      sizedFile("scan.TIFF", "", 10),
			wantValid: true,
		},
		{
			name:      "unlisted image type accepted by prefix",
			file:      sizedFile("art.jxl", "image/jxl", 10),
			wantValid: true,
		},
		{
			name:      "empty file",
			file:      sizedFile("empty.png", "image/png", 0),
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := ValidateFile(tt.file)

			if verdict.Valid != tt.wantValid {
				t.Fatalf("ValidateFile() valid = %v, want %v (error %q)", verdict.Valid, tt.wantValid, verdict.Error)
			}
			if !verdict.Valid {
				if verdict.Error == "" {
					t.Error("rejected verdict has empty Error")
				}
				if verdict.ErrorType != tt.wantType {
					t.Errorf("ErrorType = %s, want %s", verdict.ErrorType, tt.wantType)
				}
				if tt.errorMsg != "" && !strings.Contains(verdict.Error, tt.errorMsg) {
					t.Errorf("Error = %q, want to contain %q", verdict.Error, tt.errorMsg)
				}
			}
			if verdict.Warning != "" {
				t.Errorf("synchronous stage produced warning %q", verdict.Warning)
			}
		})
	}
}

func TestValidateFile_Idempotent(t *testing.T) {
	files := []*File{
		nil,
		sizedFile("photo.jpg", "image/jpeg", 1024),
		sizedFile("huge.png", "image/png", 51*MB),
		sizedFile("doc.pdf", "application/pdf", 1024),
	}

	for _, f := range files {
		first := ValidateFile(f)
		second := ValidateFile(f)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("ValidateFile() not idempotent: %+v vs %+v", first, second)
		}
	}
}

func TestValidateFileWithSignature(t *testing.T) {
	ctx := context.Background()
	lenient := NewBuilder().Accept("application/octet-stream").Build()

	tests := []struct {
		name          string
		validator     *Validator
		file          *File
		wantValid     bool
		wantWarning   []string
		wantError     string
		wantActual    string
		wantCorrected string
	}{
		{
			name:       "declared type matches content",
			validator:  NewDefault(),
			file:       NewFileFromBytes("photo.jpg", "image/jpeg", jpegHeader),
			wantValid:  true,
			wantActual: sniffer.MIMETypeJPEG,
		},
		{
			name:       "jpg alias matches JPEG content",
			validator:  NewDefault(),
			file:       NewFileFromBytes("photo.jpg", "image/jpg", jpegHeader),
			wantValid:  true,
			wantActual: sniffer.MIMETypeJPEG,
		},
		{
			name:          "JPEG label with PNG content",
			validator:     NewDefault(),
			file:          NewFileFromBytes("photo.jpg", "image/jpeg", pngHeader),
			wantValid:     true,
			wantWarning:   []string{"JPEG", "PNG"},
			wantActual:    sniffer.MIMETypePNG,
			wantCorrected: sniffer.MIMETypePNG,
		},
		{
			name:        "unverifiable image",
			validator:   NewDefault(),
			file:        NewFileFromBytes("photo.jxl", "image/jxl", make([]byte, 12)),
			wantValid:   true,
			wantWarning: []string{"could not verify", "image/jxl"},
		},
		{
			name:      "unrecognized non-image",
			validator: lenient,
			file:      NewFileFromBytes("blob.bin", "application/octet-stream", make([]byte, 12)),
			wantValid: false,
			wantError: "Unrecognized file format",
		},
		{
			name:          "non-image label with image content",
			validator:     lenient,
			file:          NewFileFromBytes("blob.bin", "application/octet-stream", pngHeader),
			wantValid:     true,
			wantWarning:   []string{"application/octet-stream", "PNG"},
			wantActual:    sniffer.MIMETypePNG,
			wantCorrected: sniffer.MIMETypePNG,
		},
		{
			name:      "synchronous rejection short-circuits",
			validator: NewDefault(),
			file:      NewFileFromBytes("notes.txt", "text/plain", pngHeader),
			wantValid: false,
			wantError: "Invalid file type",
		},
		{
			name:        "unreadable image degrades to warning",
			validator:   NewDefault(),
			file:        sizedFile("photo.png", "image/png", 10),
			wantValid:   true,
			wantWarning: []string{"image/png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := tt.validator.ValidateFileWithSignature(ctx, tt.file)

			if verdict.Valid != tt.wantValid {
				t.Fatalf("valid = %v, want %v (error %q)", verdict.Valid, tt.wantValid, verdict.Error)
			}
			if !verdict.Valid && verdict.Warning != "" {
				t.Errorf("rejected verdict carries warning %q", verdict.Warning)
			}
			if tt.wantError != "" && !strings.Contains(verdict.Error, tt.wantError) {
				t.Errorf("Error = %q, want to contain %q", verdict.Error, tt.wantError)
			}

			if len(tt.wantWarning) == 0 && verdict.Warning != "" {
				t.Errorf("unexpected warning %q", verdict.Warning)
			}
			for _, want := range tt.wantWarning {
				if !strings.Contains(strings.ToLower(verdict.Warning), strings.ToLower(want)) {
					t.Errorf("Warning = %q, want to mention %q", verdict.Warning, want)
				}
			}

			switch {
			case tt.wantActual == "" && verdict.ActualType != nil:
				t.Errorf("ActualType = %+v, want nil", verdict.ActualType)
			case tt.wantActual != "" && (verdict.ActualType == nil || verdict.ActualType.MIMEType != tt.wantActual):
				t.Errorf("ActualType = %+v, want %s", verdict.ActualType, tt.wantActual)
			}

			switch {
			case tt.wantCorrected == "" && verdict.CorrectedType != nil:
				t.Errorf("CorrectedType = %+v, want nil", verdict.CorrectedType)
			case tt.wantCorrected != "" && (verdict.CorrectedType == nil || verdict.CorrectedType.MIMEType != tt.wantCorrected):
				t.Errorf("CorrectedType = %+v, want %s", verdict.CorrectedType, tt.wantCorrected)
			}
		})
	}
}

func TestValidateFileWithSignature_ClaimedType(t *testing.T) {
	verdict := ValidateFileWithSignature(context.Background(), NewFileFromBytes("photo.jpg", "image/jpeg", pngHeader))

	if verdict.ClaimedType == nil {
		t.Fatal("ClaimedType is nil")
	}
	if verdict.ClaimedType.MIMEType != "image/jpeg" || verdict.ClaimedType.DisplayName != "JPEG" {
		t.Errorf("ClaimedType = %+v", verdict.ClaimedType)
	}
	if got := verdict.EffectiveType(); got != sniffer.MIMETypePNG {
		t.Errorf("EffectiveType() = %s, want %s", got, sniffer.MIMETypePNG)
	}
}

type countingReadCloser struct {
	io.Reader
	closed *int
}

func (c countingReadCloser) Close() error {
	*c.closed++
	return nil
}

func TestValidateFileWithSignature_ClosesReader(t *testing.T) {
	closed := 0
	file := NewFile("photo.png", int64(len(pngHeader)), "image/png", func() (io.ReadCloser, error) {
		return countingReadCloser{Reader: bytes.NewReader(pngHeader), closed: &closed}, nil
	})

	ValidateFileWithSignature(context.Background(), file)

	if closed != 1 {
		t.Errorf("reader closed %d times, want 1", closed)
	}
}

func TestValidateFileWithSignature_OpenFailure(t *testing.T) {
	file := NewFile("photo.png", 10, "image/png", func() (io.ReadCloser, error) {
		return nil, errors.New("permission denied")
	})

	verdict := ValidateFileWithSignature(context.Background(), file)
	if !verdict.Valid || verdict.Warning == "" {
		t.Errorf("open failure should degrade to a warning, got %+v", verdict)
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if file.Name != "photo.png" || file.MIMEType != "image/png" || file.Size != int64(len(pngHeader)) {
		t.Errorf("OpenFile() = %+v", file)
	}

	verdict := ValidateFileWithSignature(context.Background(), file)
	if !verdict.Valid || verdict.HasWarning() {
		t.Errorf("verdict = %+v", verdict)
	}

	if _, err := OpenFile(dir); err == nil {
		t.Error("OpenFile() on a directory should fail")
	}
	if _, err := OpenFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("OpenFile() on a missing path should fail")
	}
}

func TestNewFileFromHeader(t *testing.T) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="upload.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pngHeader)
	w.Close()

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer form.RemoveAll()

	file := NewFileFromHeader(form.File["file"][0])
	if file.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %s, want image/jpeg", file.MIMEType)
	}

	verdict := ValidateFileWithSignature(context.Background(), file)
	if verdict.CorrectedType == nil || verdict.CorrectedType.MIMEType != sniffer.MIMETypePNG {
		t.Errorf("CorrectedType = %+v, want PNG", verdict.CorrectedType)
	}
}

func TestVerdict_Err(t *testing.T) {
	verdict := ValidateFile(sizedFile("huge.png", "image/png", 51*MB))

	err := verdict.Err()
	if err == nil {
		t.Fatal("Err() = nil for rejected verdict")
	}
	if !IsErrorOfType(err, ErrorTypeSize) {
		t.Errorf("Err() type = %s, want size", GetErrorType(err))
	}
	if !IsValidationError(err) {
		t.Error("Err() is not a ValidationError")
	}

	if err := ValidateFile(sizedFile("ok.png", "image/png", 1)).Err(); err != nil {
		t.Errorf("Err() = %v for accepted verdict", err)
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder().MaxSize(1 * KB).Accept("application/octet-stream")
	v := b.Build()

	if got := v.Constraints().MaxFileSize; got != KB {
		t.Errorf("MaxFileSize = %d, want %d", got, KB)
	}

	verdict := v.ValidateFile(sizedFile("a.png", "image/png", 2*KB))
	if verdict.Valid || !strings.Contains(verdict.Error, "1 KB") {
		t.Errorf("verdict = %+v, want size rejection naming 1 KB", verdict)
	}

	if !v.ValidateFile(sizedFile("a.bin", "application/octet-stream", 10)).Valid {
		t.Error("accepted type rejected")
	}

	// Constraints are copied, later builder changes do not leak.
	b.Accept("text/plain")
	if v.ValidateFile(sizedFile("a.txt", "text/plain", 10)).Valid {
		t.Error("builder mutation leaked into built validator")
	}
}

func TestFormatSizeReadable(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{KB, "1 KB"},
		{1536, "1.5 KB"},
		{50 * MB, "50 MB"},
		{50*MB + 1, "50 MB"},
		{GB + GB/2, "1.5 GB"},
	}

	for _, tt := range tests {
		if got := FormatSizeReadable(tt.size); got != tt.want {
			t.Errorf("FormatSizeReadable(%d) = %s, want %s", tt.size, got, tt.want)
		}
	}
}

func TestMIMETypeForFilename(t *testing.T) {
	tests := map[string]string{
		"a.jpg":      "image/jpeg",
		"A.JPEG":     "image/jpeg",
		"b.webp":     "image/webp",
		"c.tif":      "image/tiff",
		"d.svg":      "image/svg+xml",
		"e.txt":      "",
		"no-ext":     "",
		"dir.png/x":  "",
		"archive.gz": "",
	}

	for name, want := range tests {
		if got := MIMETypeForFilename(name); got != want {
			t.Errorf("MIMETypeForFilename(%q) = %q, want %q", name, got, want)
		}
	}
}
