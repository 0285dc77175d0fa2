// Package cli implements redirectctl, which runs the sitemap and redirect
// workflow on local files without a server.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/JonMunkholm/RedirectMap/internal/logging"
	"github.com/spf13/cobra"
)

// defaultMaxFileSize matches the server's UPLOAD_MAX_FILE_SIZE default.
const defaultMaxFileSize = 20 << 20

var errStdoutXLSX = errors.New("xlsx output needs --output")

type outputFlags struct {
	host     string
	output   string
	format   string
	maxBytes int64
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.host, "host", "", "only keep sitemap URLs on this host")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write to FILE instead of stdout")
	cmd.Flags().StringVar(&o.format, "format", "", "csv or xlsx (default: from --output extension, else csv)")
	cmd.Flags().Int64Var(&o.maxBytes, "max-size", defaultMaxFileSize, "largest input file in bytes")
}

// resolveFormat picks the export format from --format, falling back to the
// --output extension.
func (o *outputFlags) resolveFormat() (core.Format, error) {
	if o.format == "" && strings.EqualFold(filepath.Ext(o.output), ".xlsx") {
		return core.FormatXLSX, nil
	}
	format, err := core.ParseFormat(o.format)
	if err != nil {
		return "", err
	}
	if format == core.FormatXLSX && o.output == "" {
		return "", errStdoutXLSX
	}
	return format, nil
}

// NewRootCmd builds the redirectctl command tree.
func NewRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "redirectctl",
		Short:         "Extract sitemap slugs and format redirect tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")

	root.AddCommand(slugsCmd(), redirectsCmd())
	return root
}

func slugsCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "slugs SITEMAP",
		Short: "List the same-host paths of a sitemap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := out.resolveFormat()
			if err != nil {
				return err
			}
			slugs, err := loadSlugs(args[0], out.host, out.maxBytes)
			if err != nil {
				return err
			}
			if len(slugs) == 0 {
				return core.ErrNothingToExport
			}
			if err := writeTable(cmd.OutOrStdout(), out.output, core.SlugTable(slugs), format, "Slugs"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), core.SitemapStatus(len(slugs)))
			return nil
		},
	}
	out.register(cmd)
	return cmd
}

func redirectsCmd() *cobra.Command {
	var (
		out         outputFlags
		sitemapPath string
		tablePath   string
		bulk        string
	)

	cmd := &cobra.Command{
		Use:   "redirects --sitemap SITEMAP --table TABLE",
		Short: "Normalize a redirect table against a sitemap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := out.resolveFormat()
			if err != nil {
				return err
			}
			slugs, err := loadSlugs(sitemapPath, out.host, out.maxBytes)
			if err != nil {
				return err
			}
			if len(slugs) == 0 {
				return fmt.Errorf("%s: %w", sitemapPath, core.ErrNoSitemapLoaded)
			}

			text, err := readFile(tablePath, out.maxBytes, true)
			if err != nil {
				return err
			}
			records, err := core.BuildRedirects(core.ParseCSV(text), slugs)
			if err != nil {
				return fmt.Errorf("%s: %w", tablePath, err)
			}
			if bulk != "" {
				records = core.ApplyBulkDestination(records, bulk)
			}
			if len(records) == 0 {
				return core.ErrNothingToExport
			}

			if err := writeTable(cmd.OutOrStdout(), out.output, core.RedirectTable(records), format, "Redirects"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), core.RedirectStatus(len(records)))
			return nil
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&sitemapPath, "sitemap", "", "sitemap XML file")
	cmd.Flags().StringVar(&tablePath, "table", "", "redirect CSV file")
	cmd.Flags().StringVar(&bulk, "bulk", "", "set this destination on every record")
	_ = cmd.MarkFlagRequired("sitemap")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func loadSlugs(path, host string, maxBytes int64) ([]string, error) {
	markup, err := readFile(path, maxBytes, false)
	if err != nil {
		return nil, err
	}
	slugs, err := core.ExtractSlugsForHost(markup, host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("sitemap parsed", "file", path, "slugs", len(slugs), "host", host)
	return slugs, nil
}

func readFile(path string, maxBytes int64, decodeText bool) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	text, err := core.ReadUpload(f, maxBytes, decodeText)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// writeTable writes to path, or to stdout when path is empty. Both get the
// same bytes, so CSV output has no trailing newline either way.
func writeTable(stdout io.Writer, path string, rows []core.Row, format core.Format, sheet string) error {
	if path == "" {
		return core.WriteTable(stdout, rows, format, sheet)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := core.WriteTable(f, rows, format, sheet); err != nil {
		f.Close()
		return err
	}
	slog.Info("export written", "file", path, "format", format, "rows", len(rows)-1)
	return f.Close()
}
