package filevalidator

import (
	"github.com/gobeaver/imgconvert/sniffer"
)

// FileType is a MIME type with its human-readable name
type FileType struct {
	MIMEType    string
	DisplayName string
}

// Verdict is the outcome of validating one file.
//
// A rejected verdict always carries a non-empty Error. A Warning is only ever
// set on an accepted verdict.
type Verdict struct {
	// Valid indicates whether the file may proceed to conversion
	Valid bool

	// Error is the human-readable rejection reason when Valid is false
	Error string

	// ErrorType categorizes the rejection
	ErrorType ValidationErrorType

	// Warning is a non-blocking note (unverifiable format, type mismatch)
	Warning string

	// ActualType is the sniffed format, nil when unknown or not yet sniffed
	ActualType *sniffer.SniffResult

	// ClaimedType is the declared type, set by the signature stage
	ClaimedType *FileType

	// CorrectedType is the authoritative type when the sniffed type differs
	// from the declared one
	CorrectedType *FileType
}

// Err returns the rejection as a *ValidationError, nil if valid
func (v *Verdict) Err() error {
	if v.Valid {
		return nil
	}
	return NewValidationError(v.ErrorType, v.Error)
}

// HasWarning returns true if the verdict carries a warning
func (v *Verdict) HasWarning() bool {
	return v.Warning != ""
}

// EffectiveType returns the type downstream labeling should use: the
// corrected type if any, then the sniffed type, then the declared type.
func (v *Verdict) EffectiveType() string {
	switch {
	case v.CorrectedType != nil:
		return v.CorrectedType.MIMEType
	case v.ActualType != nil:
		return v.ActualType.MIMEType
	case v.ClaimedType != nil:
		return v.ClaimedType.MIMEType
	default:
		return ""
	}
}

func accept() *Verdict {
	return &Verdict{Valid: true}
}

func reject(errType ValidationErrorType, message string) *Verdict {
	return &Verdict{
		Valid:     false,
		Error:     message,
		ErrorType: errType,
	}
}
