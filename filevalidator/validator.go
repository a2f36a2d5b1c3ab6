package filevalidator

import (
	"context"
	"fmt"

	"github.com/gobeaver/imgconvert/sniffer"
)

// Rejection and warning messages
const (
	MsgNoFile             = "No file selected"
	MsgInvalidType        = "Invalid file type. Please select an image file."
	MsgUnrecognizedFormat = "Unrecognized file format. The file does not appear to be a supported image."
	msgSizeExceeded       = "File size exceeds %s limit"
	msgUnverifiedFormat   = "Could not verify the file format; proceeding with the declared type (%s)."
	msgFormatMismatch     = "File is labeled as %s but its content is %s; using the detected format."
)

// canonicalTypes folds aliases so they do not count as a type mismatch
var canonicalTypes = map[string]string{
	"image/jpg":                sniffer.MIMETypeJPEG,
	"image/pjpeg":              sniffer.MIMETypeJPEG,
	"image/vnd.microsoft.icon": sniffer.MIMETypeICO,
	"image/heif":               sniffer.MIMETypeHEIC,
	"image/x-ms-bmp":           sniffer.MIMETypeBMP,
}

// Validator validates candidate files against a set of constraints.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	constraints Constraints
}

// New creates a new file validator with the given constraints
func New(constraints Constraints) *Validator {
	return &Validator{
		constraints: constraints,
	}
}

// NewDefault creates a new file validator with the default constraints
func NewDefault() *Validator {
	return New(DefaultConstraints())
}

var defaultValidator = NewDefault()

// ValidateFile runs the synchronous size and declared-type checks with the
// default constraints.
func ValidateFile(file *File) *Verdict {
	return defaultValidator.ValidateFile(file)
}

// ValidateFileWithSignature runs the synchronous checks and then verifies the
// file's content signature, using the default constraints.
func ValidateFileWithSignature(ctx context.Context, file *File) *Verdict {
	return defaultValidator.ValidateFileWithSignature(ctx, file)
}

// Constraints returns the current validation constraints
func (v *Validator) Constraints() Constraints {
	return v.constraints
}

// ValidateFile checks, in order: presence, size ceiling, and declared type.
// It does not read file content.
func (v *Validator) ValidateFile(file *File) *Verdict {
	if file == nil {
		return reject(ErrorTypeMissing, MsgNoFile)
	}

	if v.constraints.MaxFileSize > 0 && file.Size > v.constraints.MaxFileSize {
		return reject(ErrorTypeSize, fmt.Sprintf(msgSizeExceeded, FormatSizeReadable(v.constraints.MaxFileSize)))
	}

	if !v.isSupportedType(file.MIMEType) {
		return reject(ErrorTypeMIME, MsgInvalidType)
	}

	return accept()
}

// ValidateFileWithSignature runs ValidateFile and, if it accepts, sniffs the
// content. An unverifiable image degrades to a warning; a declared/actual
// mismatch is accepted with a warning and the sniffed type becomes the
// corrected type.
func (v *Validator) ValidateFileWithSignature(ctx context.Context, file *File) *Verdict {
	verdict := v.ValidateFile(file)
	if !verdict.Valid {
		return verdict
	}

	actual := v.sniff(ctx, file)
	claimed := &FileType{
		MIMEType:    file.MIMEType,
		DisplayName: sniffer.DisplayName(file.MIMEType),
	}
	verdict.ClaimedType = claimed

	if actual == nil {
		if !IsImageMIME(file.MIMEType) {
			rejected := reject(ErrorTypeContent, MsgUnrecognizedFormat)
			rejected.ClaimedType = claimed
			return rejected
		}
		verdict.Warning = fmt.Sprintf(msgUnverifiedFormat, file.MIMEType)
		return verdict
	}

	verdict.ActualType = actual
	if canonical(actual.MIMEType) != canonical(file.MIMEType) {
		verdict.Warning = fmt.Sprintf(msgFormatMismatch, claimed.DisplayName, actual.DisplayName)
		verdict.CorrectedType = &FileType{
			MIMEType:    actual.MIMEType,
			DisplayName: actual.DisplayName,
		}
	}

	return verdict
}

// sniff opens the file and detects its format. Any failure to open is
// treated the same as an unknown format.
func (v *Validator) sniff(ctx context.Context, file *File) *sniffer.SniffResult {
	r, err := file.Open()
	if err != nil {
		return nil
	}
	defer r.Close()

	return sniffer.Detect(ctx, r)
}

// isSupportedType checks the declared type against the supported list and
// the image family
func (v *Validator) isSupportedType(mimeType string) bool {
	if IsImageMIME(mimeType) {
		return true
	}
	for _, t := range v.constraints.SupportedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

func canonical(mimeType string) string {
	if c, ok := canonicalTypes[mimeType]; ok {
		return c
	}
	return mimeType
}
