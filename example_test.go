package mimekit_test

import (
	"fmt"
	"log"
	"strings"

	"github.com/gobeaver/mimekit"
)

func ExampleDetector_Detect() {
	d, err := mimekit.NewDefault()
	if err != nil {
		log.Fatal(err)
	}

	t, err := d.Detect(strings.NewReader("%PDF-1.7\n"), mimekit.NewMetadata("report.bin", ""))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(t)
	// Output: application/pdf
}

func ExampleDetector_Detect_hints() {
	d, err := mimekit.NewDefault()
	if err != nil {
		log.Fatal(err)
	}

	// Text content narrowed by the file name
	t, _ := d.Detect(strings.NewReader("id,name\n1,beaver\n"), mimekit.NewMetadata("animals.csv", ""))
	fmt.Println(t)

	// No content: the declared type wins over the name
	t, _ = d.Detect(nil, mimekit.NewMetadata("photo.png", "text/xml"))
	fmt.Println(t)

	// Script names served over http say nothing about the response
	t, _ = d.Detect(nil, mimekit.NewMetadata("http://example.com/index.php", ""))
	fmt.Println(t)
	// Output:
	// text/csv
	// application/xml
	// application/octet-stream
}

func ExampleDetector_ForName() {
	d, err := mimekit.NewDefault()
	if err != nil {
		log.Fatal(err)
	}

	entry, err := d.ForName("application/x-javascript")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(entry.Type(), entry.Extension(), entry.Extensions())
	// Output: text/javascript .js [.js .mjs]
}

func ExampleRegistry_IsSpecializationOf() {
	d, err := mimekit.NewDefault()
	if err != nil {
		log.Fatal(err)
	}
	reg := d.Registry()

	fmt.Println(reg.IsSpecializationOf(mimekit.MustParse("application/something+xml"), mimekit.ApplicationXML))
	fmt.Println(reg.IsSpecializationOf(mimekit.MustParse("text/csv; charset=UTF-8"), mimekit.TextPlain))
	fmt.Println(reg.IsSpecializationOf(mimekit.TextPlain, mimekit.ApplicationXML))
	// Output:
	// true
	// true
	// false
}

func ExampleParse() {
	t, err := mimekit.Parse("Text/HTML; Charset=UTF-8; level=1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(t)
	fmt.Println(t.BaseType())

	_, err = mimekit.Parse("html")
	fmt.Println(mimekit.IsFormat(err))
	// Output:
	// text/html; charset=UTF-8; level=1
	// text/html
	// true
}

func ExampleBuilder() {
	b := mimekit.NewBuilder()
	err := b.Load(strings.NewReader(`
types:
  - name: application/x-beaver
    extensions: [.beaver]
    magics:
      - matches:
          - {offset: "0", value: 'BVR\x01'}
`))
	if err != nil {
		log.Fatal(err)
	}
	d, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(d.DetectBytes([]byte("BVR\x01payload"), nil))
	fmt.Println(d.DetectBytes(nil, mimekit.NewMetadata("dam.BEAVER", "")))
	// Output:
	// application/x-beaver
	// application/x-beaver
}
