package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gobeaver/mimekit"
	"github.com/gobeaver/mimekit/filevalidator"
)

func newDetectCmd(opts *options) *cobra.Command {
	var name, declared string
	var hintsOnly bool

	cmd := &cobra.Command{
		Use:   "detect [FILE]...",
		Short: "Detect the media type of files or standard input",
		Long: `Detect the media type of each FILE. With no FILE, or when FILE is -, read
standard input. A single result is printed bare; several are printed as
"FILE: TYPE".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.detector()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				md := mimekit.NewMetadata(resourceName(path, name), declared)
				t, err := detectPath(d, cmd.InOrStdin(), path, md, hintsOnly)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					colorType.Fprintln(out, t.String())
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", colorPath.Sprint(path), colorType.Sprint(t.String()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "resource name hint (default: the file path)")
	cmd.Flags().StringVarP(&declared, "type", "t", "", "declared content type hint")
	cmd.Flags().BoolVar(&hintsOnly, "hints-only", false, "ignore content and detect from the name and declared type")
	return cmd
}

func resourceName(path, override string) string {
	if override != "" || path == "-" {
		return override
	}
	return path
}

func detectPath(d *mimekit.Detector, stdin io.Reader, path string, md mimekit.Metadata, hintsOnly bool) (mimekit.MediaType, error) {
	if hintsOnly {
		return d.Detect(nil, md)
	}
	if path == "-" {
		return d.Detect(stdin, md)
	}
	f, err := os.Open(path)
	if err != nil {
		return mimekit.MediaType{}, err
	}
	defer f.Close()
	return d.Detect(f, md)
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info TYPE",
		Short: "Show the registered entry for a media type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.detector()
			if err != nil {
				return err
			}
			entry, err := d.ForName(args[0])
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), d.Registry(), entry)
			return nil
		},
	}
}

func printEntry(w io.Writer, reg *mimekit.Registry, entry *mimekit.TypeEntry) {
	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "%s %s\n", colorLabel.Sprintf("%-12s", label+":"), value)
	}

	t := entry.Type()
	field("Type", colorType.Sprint(t.String()))
	field("Description", entry.Description())
	field("Acronym", entry.Acronym())
	field("UTI", entry.UniformTypeIdentifier())
	field("Aliases", joinTypes(reg.Aliases(t), ", "))
	field("Extensions", strings.Join(entry.Extensions(), ", "))
	field("Supertypes", joinTypes(supertypes(reg, t), " > "))
	field("Children", joinTypes(reg.ChildTypes(t), ", "))
	if n := len(entry.Magics()); n > 0 {
		field("Magic", fmt.Sprintf("%d rule(s)", n))
	}
	field("Container", strings.Join(entry.ContainerEntries(), ", "))
	var roots []string
	for _, r := range entry.RootElements() {
		if r.Namespace == "" {
			roots = append(roots, r.LocalName)
			continue
		}
		roots = append(roots, "{"+r.Namespace+"}"+r.LocalName)
	}
	field("XML roots", strings.Join(roots, ", "))
	field("Links", strings.Join(entry.Links(), ", "))
}

// supertypes walks the supertype chain of t up to the root
func supertypes(reg *mimekit.Registry, t mimekit.MediaType) []mimekit.MediaType {
	var chain []mimekit.MediaType
	for i := 0; i < 64; i++ {
		parent, ok := reg.Supertype(t)
		if !ok {
			break
		}
		chain = append(chain, parent)
		t = parent
	}
	return chain
}

func joinTypes(types []mimekit.MediaType, sep string) string {
	s := make([]string, len(types))
	for i, t := range types {
		s[i] = t.String()
	}
	return strings.Join(s, sep)
}

func newTypesCmd(opts *options) *cobra.Command {
	var withExtensions bool
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List every registered media type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.detector()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range d.Types() {
				if !withExtensions {
					fmt.Fprintln(out, t)
					continue
				}
				entry, err := d.ForName(t.String())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-40s %s\n", t, strings.Join(entry.Extensions(), " "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&withExtensions, "extensions", "e", false, "print each type's extensions")
	return cmd
}

func newMatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "match NAME...",
		Short: "Show the glob matches for file names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.detector()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range args {
				matches := d.MatchName(name)
				if len(matches) == 0 {
					fmt.Fprintf(out, "%s: no match\n", colorPath.Sprint(name))
					continue
				}
				for _, m := range matches {
					fmt.Fprintf(out, "%s: %s (pattern %q, priority %d)\n", colorPath.Sprint(name), colorType.Sprint(m.Type.String()), m.Pattern, m.Priority)
				}
			}
			return nil
		},
	}
}

func newValidateCmd(opts *options) *cobra.Command {
	var (
		accept  []string
		block   []string
		exts    []string
		maxSize int64
		strict  bool
	)
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check files against upload constraints",
		Long: `Check each FILE against accepted and blocked media types. Accepting a type
accepts its specializations, so --accept application/zip admits DOCX files.
Executables and server-side scripts are always blocked.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.detector()
			if err != nil {
				return err
			}
			b := filevalidator.NewBuilder().
				WithDetector(d).
				AllowNoExtension().
				Accept(accept...).
				Block(block...).
				Extensions(exts...).
				MaxSize(maxSize)
			if strict {
				b.StrictTypes()
			}
			v := b.Build()

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				t, err := validatePath(cmd.Context(), v, path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: %s\n", colorPath.Sprint(path), colorError.Sprint(err.Error()))
					continue
				}
				fmt.Fprintf(out, "%s: %s ok\n", colorPath.Sprint(path), colorType.Sprint(t.String()))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&accept, "accept", "a", nil, "accepted types or groups such as image/*")
	cmd.Flags().StringSliceVarP(&block, "block", "b", nil, "blocked types")
	cmd.Flags().StringSliceVarP(&exts, "ext", "x", nil, "allowed extensions")
	cmd.Flags().Int64Var(&maxSize, "max-size", 100*filevalidator.MB, "maximum file size in bytes, 0 for no limit")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject names that contradict the content")
	return cmd
}

func validatePath(ctx context.Context, v *filevalidator.FileValidator, path string) (mimekit.MediaType, error) {
	f, err := os.Open(path)
	if err != nil {
		return mimekit.MediaType{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return mimekit.MediaType{}, err
	}
	return v.ValidateReader(ctx, f, filepath.Base(path), info.Size())
}
