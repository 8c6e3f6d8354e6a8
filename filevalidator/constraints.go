package filevalidator

import (
	"regexp"

	"github.com/gobeaver/mimekit"
)

// Size constants for easier file size configuration
const (
	KB = int64(1024)
	MB = KB * 1024
	GB = MB * 1024
)

// MediaTypeGroup names a family of media types usable in AcceptedTypes and
// BlockedTypes.
type MediaTypeGroup string

const (
	AllowAllImages    MediaTypeGroup = "image/*"
	AllowAllAudio     MediaTypeGroup = "audio/*"
	AllowAllVideo     MediaTypeGroup = "video/*"
	AllowAllText      MediaTypeGroup = "text/*"
	AllowAllFonts     MediaTypeGroup = "font/*"
	AllowAllDocuments MediaTypeGroup = "document/*"
	AllowAll          MediaTypeGroup = "*/*"
)

// documentTypes is what AllowAllDocuments stands for. Each entry also admits
// its specializations, so the OLE and OOXML roots cover every office format.
var documentTypes = []string{
	"application/pdf",
	"application/rtf",
	"application/x-tika-msoffice",
	"application/x-tika-ooxml",
	"application/vnd.oasis.opendocument.text",
	"application/vnd.oasis.opendocument.spreadsheet",
	"application/vnd.oasis.opendocument.presentation",
	"application/epub+zip",
	"text/csv",
	"text/markdown",
}

// executableTypes are rejected by DefaultConstraints whatever the file is named
var executableTypes = []string{
	"application/x-msdownload",
	"application/x-executable",
	"application/x-mach-o-executable",
	"application/x-sh",
	"text/x-php",
	"text/x-jsp",
}

// Constraints defines the configuration for file validation
type Constraints struct {
	// MaxFileSize is the maximum allowed file size in bytes, 0 for no limit
	MaxFileSize int64

	// MinFileSize is the minimum allowed file size in bytes
	MinFileSize int64

	// AcceptedTypes lists the media types a file's content may have. Accepting
	// a type accepts its specializations: "application/zip" admits DOCX and
	// JAR, "application/xml" admits SVG. Groups such as "image/*" match on the
	// top-level type. Empty means every type is accepted.
	AcceptedTypes []string

	// BlockedTypes lists media types rejected even when accepted. Blocking a
	// type blocks its specializations.
	BlockedTypes []string

	// AllowedExts is a list of allowed file extensions including the dot.
	// If empty, all extensions are allowed unless blocked by BlockedExts.
	AllowedExts []string

	// BlockedExts is a list of blocked file extensions including the dot
	BlockedExts []string

	// MaxNameLength is the maximum allowed filename length, 0 for no limit
	MaxNameLength int

	// FileNameRegex is an optional pattern every filename must match
	FileNameRegex *regexp.Regexp

	// DangerousChars is a list of substrings rejected in filenames
	DangerousChars []string

	// RequireExtension enforces that files must have an extension
	RequireExtension bool

	// StrictTypeValidation rejects files whose name claims a type unrelated to
	// the detected one, for example a PDF uploaded as photo.png.
	StrictTypeValidation bool

	// Detector performs content detection. Nil means the package-level
	// mimekit detector.
	Detector *mimekit.Detector
}

// DefaultConstraints creates a new set of constraints with sensible defaults
func DefaultConstraints() Constraints {
	return Constraints{
		MaxFileSize:      10 * MB,
		MinFileSize:      1,
		MaxNameLength:    255,
		DangerousChars:   []string{"../", "\\", ";", "&", "|", ">", "<", "$", "`", "!", "*"},
		BlockedTypes:     append([]string(nil), executableTypes...),
		BlockedExts:      []string{".exe", ".bat", ".cmd", ".sh", ".php", ".phtml", ".pl", ".cgi", ".dll", ".com", ".jar", ".pif", ".vb", ".vbs", ".js", ".jse", ".msc", ".ws", ".wsf", ".ps1", ".scf", ".lnk", ".inf", ".reg", ".docm", ".xlsm", ".pptm"},
		RequireExtension: true,
	}
}

// ImageOnlyConstraints creates constraints that only allow image files
func ImageOnlyConstraints() Constraints {
	constraints := DefaultConstraints()
	constraints.AcceptedTypes = []string{string(AllowAllImages)}
	constraints.AllowedExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".tiff", ".tif", ".ico", ".avif"}
	constraints.StrictTypeValidation = true
	return constraints
}

// DocumentOnlyConstraints creates constraints that only allow document files
func DocumentOnlyConstraints() Constraints {
	constraints := DefaultConstraints()
	constraints.AcceptedTypes = []string{string(AllowAllDocuments)}
	constraints.AllowedExts = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".odp", ".rtf", ".csv", ".md", ".epub"}
	constraints.MaxFileSize = 50 * MB
	return constraints
}

// MediaOnlyConstraints creates constraints that only allow audio and video files
func MediaOnlyConstraints() Constraints {
	constraints := DefaultConstraints()
	constraints.AcceptedTypes = []string{string(AllowAllAudio), string(AllowAllVideo)}
	constraints.AllowedExts = []string{".mp3", ".wav", ".ogg", ".flac", ".mid", ".mp4", ".m4v", ".mov", ".mkv", ".webm", ".avi", ".flv"}
	constraints.MaxFileSize = 500 * MB
	return constraints
}
