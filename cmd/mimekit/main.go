// Command mimekit identifies media types from file content and names.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobeaver/mimekit"
)

var (
	version = "dev"

	colorPath  = color.New(color.FgCyan)
	colorType  = color.New(color.FgGreen, color.Bold)
	colorLabel = color.New(color.FgYellow)
	colorError = color.New(color.FgRed, color.Bold)
)

// options holds the flags shared by every subcommand
type options struct {
	definitions []string
	policy      string
	noColor     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		colorError.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "mimekit",
		Short: "Identify media types from content and names",
		Long: `mimekit detects the media type of files the way content repositories do:
magic bytes first, then container and XML inspection, with file names and
declared types used to narrow the result.

Configuration is read from BEAVER_MIMEKIT_* environment variables.

Examples:
  # Detect a file
  mimekit detect report.bin

  # Detect standard input, hinting the original name
  curl -s https://example.com/feed | mimekit detect --name feed.xml

  # Show everything known about a type
  mimekit info application/x-javascript`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringSliceVarP(&opts.definitions, "definitions", "d", nil, "extra YAML definition files, loaded after the built-in set")
	root.PersistentFlags().StringVar(&opts.policy, "policy", "", "winner when a declared type conflicts with content (content, declared)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newDetectCmd(opts),
		newInfoCmd(opts),
		newTypesCmd(opts),
		newMatchCmd(opts),
		newValidateCmd(opts),
	)
	return root
}

// detector builds a detector from the environment, overridden by flags
func (o *options) detector() (*mimekit.Detector, error) {
	cfg, err := mimekit.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if len(o.definitions) > 0 {
		files := o.definitions
		if cfg.CustomDefinitions != "" {
			files = append([]string{cfg.CustomDefinitions}, files...)
		}
		cfg.CustomDefinitions = strings.Join(files, ",")
	}
	if o.policy != "" {
		cfg.DeclaredTypePolicy = o.policy
	}
	return mimekit.New(cfg)
}
