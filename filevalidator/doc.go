// Package filevalidator decides whether a candidate image file may enter the
// conversion pipeline. It never trusts the declared type: the file's leading
// bytes are the ground truth whenever they can be identified.
//
// # Two Stages
//
// [Validator.ValidateFile] is synchronous and reads no content. It rejects, in
// order, a missing file, a file larger than the size ceiling (50 MB by
// default), and a declared type that is neither a supported input type nor an
// "image/" type.
//
// [Validator.ValidateFileWithSignature] runs the synchronous stage and then
// sniffs the first bytes of the file with the sniffer package:
//
//	verdict := filevalidator.ValidateFileWithSignature(ctx, file)
//	if !verdict.Valid {
//	    return verdict.Err()
//	}
//	if verdict.HasWarning() {
//	    log.Println(verdict.Warning)
//	}
//	mime := verdict.EffectiveType()
//
// # Verdicts, Not Errors
//
// Rejections are expected, user-correctable conditions, so both stages return
// a [Verdict] rather than an error. A rejected verdict always carries an Error
// message; a Warning only ever accompanies an accepted verdict.
//
// A declared/actual mismatch never fails validation on its own. It produces a
// warning naming both formats and sets CorrectedType to the sniffed type. A
// file whose content cannot be identified is accepted with a warning when it
// is declared as an image, and rejected otherwise.
//
// # Constraints
//
// The package-level functions use [DefaultConstraints]. Use the builder for a
// different ceiling or extra accepted types:
//
//	v := filevalidator.NewBuilder().
//	    MaxSize(20 * filevalidator.MB).
//	    Accept("application/octet-stream").
//	    Build()
package filevalidator
