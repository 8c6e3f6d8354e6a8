// Package filevalidator checks uploaded files against size, name and media
// type constraints. Media types come from content detection by a
// [mimekit.Detector], so a renamed executable is caught by what it contains
// rather than what it is called.
//
// # Quick Start
//
// Using presets:
//
//	validator := filevalidator.ForImages().Build()
//	err := validator.Validate(fileHeader)
//
// Using the builder API:
//
//	validator := filevalidator.NewBuilder().
//	    MaxSize(10 * filevalidator.MB).
//	    Accept("image/*", "application/pdf").
//	    Extensions(".jpg", ".png", ".pdf").
//	    StrictTypes().
//	    Build()
//
// # Type Matching
//
// Accepted and blocked types follow the mimekit type hierarchy: accepting
// "application/xml" also accepts SVG and XHTML, and blocking
// "application/x-tika-ooxml" blocks every OOXML office format. Groups such
// as "image/*" match on the top-level type only.
//
// The name and the client's Content-Type can narrow what the content shows,
// turning text into text/csv for data.csv, but never replace it. Content the
// detector does not recognize, including an empty file, is checked as
// application/octet-stream whatever it is called.
//
// With StrictTypes, a file whose name matches known globs must have content
// related to one of them. A PDF named photo.png is rejected; a CSV named
// data.txt is not, since text/csv specializes text/plain.
package filevalidator
