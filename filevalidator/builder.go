package filevalidator

import (
	"regexp"

	"github.com/gobeaver/mimekit"
)

// Builder provides a fluent API for constructing validators
type Builder struct {
	constraints Constraints
}

// NewBuilder creates a new validator builder starting from DefaultConstraints
func NewBuilder() *Builder {
	return &Builder{constraints: DefaultConstraints()}
}

// Empty creates a builder with no restrictions at all
func Empty() *Builder {
	return &Builder{}
}

// --- Size constraints ---

// MaxSize sets the maximum allowed file size
func (b *Builder) MaxSize(size int64) *Builder {
	b.constraints.MaxFileSize = size
	return b
}

// MinSize sets the minimum required file size
func (b *Builder) MinSize(size int64) *Builder {
	b.constraints.MinFileSize = size
	return b
}

// SizeRange sets both minimum and maximum file size
func (b *Builder) SizeRange(minSize, maxSize int64) *Builder {
	b.constraints.MinFileSize = minSize
	b.constraints.MaxFileSize = maxSize
	return b
}

// --- Media type constraints ---

// Accept adds accepted media types. Accepting a type accepts its
// specializations; groups such as "image/*" match the top-level type.
func (b *Builder) Accept(types ...string) *Builder {
	b.constraints.AcceptedTypes = append(b.constraints.AcceptedTypes, types...)
	return b
}

// AcceptImages allows all image types
func (b *Builder) AcceptImages() *Builder {
	return b.Accept(string(AllowAllImages))
}

// AcceptDocuments allows PDF, office, OpenDocument and similar types
func (b *Builder) AcceptDocuments() *Builder {
	return b.Accept(string(AllowAllDocuments))
}

// AcceptAudio allows all audio types
func (b *Builder) AcceptAudio() *Builder {
	return b.Accept(string(AllowAllAudio))
}

// AcceptVideo allows all video types
func (b *Builder) AcceptVideo() *Builder {
	return b.Accept(string(AllowAllVideo))
}

// AcceptMedia allows all audio and video types
func (b *Builder) AcceptMedia() *Builder {
	return b.AcceptAudio().AcceptVideo()
}

// AcceptAll allows all file types
func (b *Builder) AcceptAll() *Builder {
	return b.Accept(string(AllowAll))
}

// Block adds media types rejected by content, whatever the file is named
func (b *Builder) Block(types ...string) *Builder {
	b.constraints.BlockedTypes = append(b.constraints.BlockedTypes, types...)
	return b
}

// StrictTypes rejects files whose name suggests a type unrelated to their content
func (b *Builder) StrictTypes() *Builder {
	b.constraints.StrictTypeValidation = true
	return b
}

// WithDetector validates with d instead of the package-level detector
func (b *Builder) WithDetector(d *mimekit.Detector) *Builder {
	b.constraints.Detector = d
	return b
}

// --- Extension constraints ---

// Extensions sets the allowed file extensions (e.g., ".jpg", ".png")
func (b *Builder) Extensions(exts ...string) *Builder {
	b.constraints.AllowedExts = append(b.constraints.AllowedExts, exts...)
	return b
}

// ExtensionsFor allows every extension the detector registers for the given
// types. Unknown types are skipped.
func (b *Builder) ExtensionsFor(d *mimekit.Detector, types ...string) *Builder {
	for _, name := range types {
		entry, err := d.ForName(name)
		if err != nil {
			continue
		}
		b.constraints.AllowedExts = append(b.constraints.AllowedExts, entry.Extensions()...)
	}
	return b
}

// BlockExtensions adds extensions to the blocklist
func (b *Builder) BlockExtensions(exts ...string) *Builder {
	b.constraints.BlockedExts = append(b.constraints.BlockedExts, exts...)
	return b
}

// RequireExtension requires files to have an extension
func (b *Builder) RequireExtension() *Builder {
	b.constraints.RequireExtension = true
	return b
}

// AllowNoExtension allows files without extensions
func (b *Builder) AllowNoExtension() *Builder {
	b.constraints.RequireExtension = false
	return b
}

// --- Filename constraints ---

// MaxNameLength sets the maximum filename length
func (b *Builder) MaxNameLength(length int) *Builder {
	b.constraints.MaxNameLength = length
	return b
}

// FileNamePattern sets a regex pattern for valid filenames
func (b *Builder) FileNamePattern(pattern *regexp.Regexp) *Builder {
	b.constraints.FileNameRegex = pattern
	return b
}

// FileNamePatternString sets a regex pattern from a string
func (b *Builder) FileNamePatternString(pattern string) *Builder {
	b.constraints.FileNameRegex = regexp.MustCompile(pattern)
	return b
}

// DangerousChars sets substrings to block in filenames
func (b *Builder) DangerousChars(chars ...string) *Builder {
	b.constraints.DangerousChars = chars
	return b
}

// --- Build ---

// Build creates the validator with the configured constraints
func (b *Builder) Build() *FileValidator {
	return New(b.constraints)
}

// Constraints returns the current constraints (for inspection)
func (b *Builder) Constraints() Constraints {
	return b.constraints
}

// --- Presets ---

// ForImages creates a builder pre-configured for image uploads
func ForImages() *Builder {
	return NewBuilder().
		AcceptImages().
		Extensions(".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".tiff", ".tif", ".ico", ".avif").
		MaxSize(10 * MB).
		StrictTypes()
}

// ForDocuments creates a builder pre-configured for document uploads
func ForDocuments() *Builder {
	return NewBuilder().
		AcceptDocuments().
		Extensions(".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".odp", ".rtf", ".csv").
		MaxSize(50 * MB).
		StrictTypes()
}

// ForMedia creates a builder pre-configured for audio/video uploads
func ForMedia() *Builder {
	return NewBuilder().
		AcceptMedia().
		Extensions(".mp3", ".wav", ".ogg", ".flac", ".mp4", ".webm", ".avi", ".mov", ".mkv").
		MaxSize(500 * MB)
}

// ForArchives creates a builder pre-configured for archive uploads. Office
// and other zip-based containers are archives too, so they are blocked.
func ForArchives() *Builder {
	return NewBuilder().
		Accept("application/zip", "application/gzip", "application/x-tar", "application/x-7z-compressed", "application/x-bzip2", "application/x-xz", "application/zstd").
		Block("application/x-tika-ooxml", "application/java-archive", "application/vnd.android.package-archive").
		Extensions(".zip", ".tar", ".gz", ".tgz", ".7z", ".bz2", ".xz", ".zst").
		MaxSize(1 * GB)
}

// ForWeb creates a builder for typical web uploads (images + documents)
func ForWeb() *Builder {
	return NewBuilder().
		AcceptImages().
		AcceptDocuments().
		Extensions(
			// Images
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg",
			// Documents
			".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".csv",
		).
		MaxSize(25 * MB)
}

// Strict creates a builder with strict validation settings
func Strict() *Builder {
	return NewBuilder().
		StrictTypes().
		RequireExtension()
}
