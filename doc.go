// Package mimekit identifies the media type of a byte stream from its leading
// bytes, its file name and an optional declared type, without parsing the
// document.
//
// A detector is built once from a set of type definitions and is immutable
// afterwards, so a single [Detector] can serve any number of goroutines.
//
// # Basic Usage
//
//	d, err := mimekit.NewDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f, _ := os.Open("report.docx")
//	defer f.Close()
//
//	t, err := d.Detect(f, mimekit.NewMetadata("report.docx", ""))
//	// t.String() == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
//
// # Evidence Precedence
//
// The detector weighs three sources:
//
//   - Content: magic signatures tested against the first bytes of the stream
//     (64 KiB by default), then a byte order mark check, then a plain text
//     heuristic. Zip and XML verdicts are narrowed by looking at the archive
//     entries or the document's root element.
//   - Declared type: the Content-Type entry of the [Metadata] bag.
//   - File name: glob patterns matched against the resourceName entry.
//
// An empty or missing stream defers to the declared type, then the file name,
// then application/octet-stream. When content gives a verdict, hints may only
// narrow it to a more specific type; a conflicting declared type loses unless
// the detector was built with [WithDeclaredTypePolicy]([PolicyDeclared]). Names
// given as http or https URLs ending in a server-side script extension (.php,
// .jsp, .cgi, ...) carry no evidence because the response type is unrelated to
// the script name.
//
// # Type Hierarchy
//
// [Registry] answers specialization questions. Besides declared parents, every
// parameterized type specializes its base type, "+xml" subtypes specialize
// application/xml, "+zip" subtypes specialize application/zip, text/* types
// specialize text/plain and everything specializes application/octet-stream.
//
// # Custom Definitions
//
// Definitions are YAML documents:
//
//	types:
//	  - name: application/x-hello
//	    parent: text/plain
//	    extensions: [.hello]
//	    magics:
//	      - priority: 60
//	        matches:
//	          - {offset: "0:16", value: 'Hello'}
//
// Load them with [Builder.Load] or name the files in MIMEKIT_CUSTOM_DEFINITIONS.
//
// # Configuration
//
// The global detector reads BEAVER_MIMEKIT_* environment variables through
// beaver-kit/config; see [Config].
//
//	if err := mimekit.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	t, err := mimekit.Detect(r, nil)
package mimekit
