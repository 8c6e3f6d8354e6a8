package filevalidator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gobeaver/mimekit"
)

// Validator provides the main interface for validating files
type Validator interface {
	// Validate validates an uploaded file against the validator's constraints
	Validate(file *multipart.FileHeader) error

	// ValidateWithContext validates an uploaded file with cancellation
	ValidateWithContext(ctx context.Context, file *multipart.FileHeader) error

	// ValidateReader validates content read from reader and returns its type
	ValidateReader(ctx context.Context, reader io.Reader, filename string, size int64) (mimekit.MediaType, error)

	// ValidateBytes validates in-memory content and returns its type
	ValidateBytes(content []byte, filename string) (mimekit.MediaType, error)

	// GetConstraints returns the current validation constraints
	GetConstraints() Constraints
}

// FileValidator implements Validator on top of a mimekit detector
type FileValidator struct {
	constraints Constraints
	accepted    []typePattern
	blocked     []typePattern
	err         error
}

var _ Validator = (*FileValidator)(nil)

// New creates a new file validator with the given constraints. Malformed
// entries in AcceptedTypes or BlockedTypes make every validation fail with
// the parse error.
func New(constraints Constraints) *FileValidator {
	v := &FileValidator{constraints: constraints}
	v.accepted, v.err = compilePatterns(constraints.AcceptedTypes)
	if v.err == nil {
		v.blocked, v.err = compilePatterns(constraints.BlockedTypes)
	}
	return v
}

// NewDefault creates a new file validator with sensible default constraints
func NewDefault() *FileValidator {
	return New(DefaultConstraints())
}

// Validate validates a file against the validator's constraints
func (v *FileValidator) Validate(file *multipart.FileHeader) error {
	return v.ValidateWithContext(context.Background(), file)
}

// ValidateWithContext validates a file with context for potential cancellation.
// The Content-Type the client sent is passed to detection as a declared hint,
// which can narrow the content's type but never replace it.
func (v *FileValidator) ValidateWithContext(ctx context.Context, file *multipart.FileHeader) error {
	if err := v.precheck(ctx, file.Filename, file.Size); err != nil {
		return err
	}

	f, err := file.Open()
	if err != nil {
		return &ValidationError{Type: ErrorTypeRead, Message: "failed to open file", Err: err}
	}
	defer f.Close()

	md := mimekit.NewMetadata(file.Filename, file.Header.Get("Content-Type"))
	_, err = v.check(ctx, file.Filename, func(d *mimekit.Detector) (mimekit.Verdict, error) {
		return d.Inspect(ctx, f, md)
	})
	return err
}

// ValidateReader validates content read from reader. A negative size means the
// size is unknown and skips the size checks. Readers that can peek or seek are
// left where they were; others lose the bytes read for detection, so use
// ValidateStream for those.
func (v *FileValidator) ValidateReader(ctx context.Context, reader io.Reader, filename string, size int64) (mimekit.MediaType, error) {
	if err := v.precheck(ctx, filename, size); err != nil {
		return mimekit.MediaType{}, err
	}
	return v.check(ctx, filename, func(d *mimekit.Detector) (mimekit.Verdict, error) {
		return d.Inspect(ctx, reader, mimekit.NewMetadata(filename, ""))
	})
}

// ValidateStream validates a one-shot stream. On success the returned reader
// yields the complete stream, including the bytes consumed for detection.
func (v *FileValidator) ValidateStream(reader io.Reader, filename string) (mimekit.MediaType, io.Reader, error) {
	ctx := context.Background()
	if err := v.precheck(ctx, filename, -1); err != nil {
		return mimekit.MediaType{}, nil, err
	}
	var replay io.Reader
	t, err := v.check(ctx, filename, func(d *mimekit.Detector) (mimekit.Verdict, error) {
		verdict, r, err := d.InspectReader(reader, mimekit.NewMetadata(filename, ""))
		replay = r
		return verdict, err
	})
	if err != nil {
		return t, nil, err
	}
	return t, replay, nil
}

// ValidateBytes validates a file from a byte slice with a filename
func (v *FileValidator) ValidateBytes(content []byte, filename string) (mimekit.MediaType, error) {
	if content == nil {
		content = []byte{}
	}
	return v.ValidateReader(context.Background(), bytes.NewReader(content), filename, int64(len(content)))
}

// GetConstraints returns the current validation constraints
func (v *FileValidator) GetConstraints() Constraints {
	return v.constraints
}

// precheck runs every check that needs no content
func (v *FileValidator) precheck(ctx context.Context, filename string, size int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if v.err != nil {
		return v.err
	}
	if err := v.validateFileName(filename); err != nil {
		return err
	}
	if size < 0 {
		return nil
	}
	if v.constraints.MaxFileSize > 0 && size > v.constraints.MaxFileSize {
		return NewValidationError(ErrorTypeSize, fmt.Sprintf("file size too big: %s (max: %s)", FormatSize(size), FormatSize(v.constraints.MaxFileSize)))
	}
	if v.constraints.MinFileSize > 0 && size < v.constraints.MinFileSize {
		return NewValidationError(ErrorTypeSize, fmt.Sprintf("file size too small: %d bytes (min: %d bytes)", size, v.constraints.MinFileSize))
	}
	return nil
}

// check detects the content type and applies the type constraints to it. The
// constraints see only what the bytes vouch for, so content the detector does
// not recognize is application/octet-stream whatever its name says.
func (v *FileValidator) check(ctx context.Context, filename string, detect func(*mimekit.Detector) (mimekit.Verdict, error)) (mimekit.MediaType, error) {
	d, err := v.detector()
	if err != nil {
		return mimekit.MediaType{}, err
	}
	verdict, err := detect(d)
	if err != nil {
		if ctx.Err() != nil {
			return mimekit.MediaType{}, ctx.Err()
		}
		return mimekit.MediaType{}, &ValidationError{Type: ErrorTypeRead, Message: "failed to read content", Err: err}
	}

	t := verdict.Verified()
	reg := d.Registry()
	if p, ok := matchAny(v.blocked, reg, t); ok {
		return t, typeError(t, "file type %s is blocked by %s", t, p)
	}
	if len(v.accepted) > 0 {
		if _, ok := matchAny(v.accepted, reg, t); !ok {
			return t, typeError(t, "file type %s is not accepted; allowed types: %v", t, v.constraints.AcceptedTypes)
		}
	}
	if v.constraints.StrictTypeValidation {
		if err := checkNameAgreement(d, filename, t); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (v *FileValidator) detector() (*mimekit.Detector, error) {
	if v.constraints.Detector != nil {
		return v.constraints.Detector, nil
	}
	return mimekit.Default()
}

// checkNameAgreement fails when the filename matches globs and none of their
// types is related to t in either direction.
func checkNameAgreement(d *mimekit.Detector, filename string, t mimekit.MediaType) error {
	matches := d.MatchName(filename)
	if len(matches) == 0 {
		return nil
	}
	reg := d.Registry()
	for _, m := range matches {
		if reg.IsSpecializationOf(t, m.Type) || reg.IsSpecializationOf(m.Type, t) {
			return nil
		}
	}
	return &ValidationError{
		Type:     ErrorTypeMismatch,
		Message:  fmt.Sprintf("name %s suggests %s but content is %s", mimekit.FileName(filename), matches[0].Type, t),
		Detected: t,
	}
}

// validateFileName validates a filename against the validator's constraints
func (v *FileValidator) validateFileName(filename string) error {
	if len(filename) == 0 {
		return NewValidationError(ErrorTypeFileName, "empty filename")
	}

	if v.constraints.MaxNameLength > 0 && len(filename) > v.constraints.MaxNameLength {
		return NewValidationError(
			ErrorTypeFileName,
			fmt.Sprintf("filename exceeds maximum length of %d characters", v.constraints.MaxNameLength),
		)
	}

	for _, char := range v.constraints.DangerousChars {
		if strings.Contains(filename, char) {
			return NewValidationError(ErrorTypeFileName, fmt.Sprintf("filename contains invalid character: %s", char))
		}
	}

	if v.constraints.FileNameRegex != nil && !v.constraints.FileNameRegex.MatchString(filename) {
		return NewValidationError(ErrorTypeFileName, "filename doesn't match the required pattern")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) == 0 && v.constraints.RequireExtension {
		return NewValidationError(ErrorTypeExtension, "file must have an extension")
	}

	// Blocked extensions win over allowed ones
	for _, blockedExt := range v.constraints.BlockedExts {
		if strings.EqualFold(ext, blockedExt) {
			return NewValidationError(ErrorTypeExtension, fmt.Sprintf("file extension %s is blocked", ext))
		}
	}

	if !v.isAcceptedExtension(ext) {
		return NewValidationError(ErrorTypeExtension, fmt.Sprintf("file extension %s is not allowed", ext))
	}
	return nil
}

// isAcceptedExtension checks if a file extension is accepted by the validator
func (v *FileValidator) isAcceptedExtension(ext string) bool {
	if len(v.constraints.AllowedExts) == 0 {
		return true
	}
	for _, allowedExt := range v.constraints.AllowedExts {
		if strings.EqualFold(ext, allowedExt) {
			return true
		}
	}
	return false
}

// FormatSize renders a byte count with the largest fitting binary unit
func FormatSize(size int64) string {
	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(GB))
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(MB))
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(KB))
	}
	return fmt.Sprintf("%d bytes", size)
}
