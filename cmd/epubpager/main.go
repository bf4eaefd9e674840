package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yuanying/epubpager/internal/config"
)

// tuiAnnotation marks commands that own the terminal; their logs go to
// --log-file or nowhere.
const tuiAnnotation = "tui"

type cliOptions struct {
	Config config.Config
	Logger *slog.Logger

	closeLog func() error
}

// Close releases the log file, if any.
func (o cliOptions) Close() error {
	if o.closeLog == nil {
		return nil
	}
	return o.closeLog()
}

func newRootCmd() *cobra.Command {
	return newRootCmdFs(afero.NewOsFs())
}

func newRootCmdFs(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubpager",
		Short: "Read EPUB books one page at a time",
		Long: `epubpager reads EPUB ebooks in the terminal. The text of the spine is
re-flowed into fixed-size pages whose length depends on the viewport width,
and a page has to be scrolled to its end before the reader may advance.

Settings can also be given through the environment:

` + config.Usage(),
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.IntP("width", "w", 0, "Viewport width in pixels used to pick the page size (default: terminal width)")
	pf.Bool("chapter-breaks", false, "Start every chapter on a new page")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text, json")
	pf.String("log-file", "", "Append logs to this file")
	pf.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")

	cmd.AddCommand(
		newReadCmd(fs),
		newPagesCmd(fs),
		newInfoCmd(fs),
		newCoverCmd(fs),
		newLibraryCmd(fs),
	)
	return cmd
}

// readCLIOptions merges the environment configuration with the flags that
// were set explicitly, validates the result and builds the logger. The log
// file, if any, is opened on fs.
func readCLIOptions(fs afero.Fs, cmd *cobra.Command, _ []string) (cliOptions, error) {
	cfg, err := config.Load()
	if err != nil {
		return cliOptions{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.ViewportWidth, _ = flags.GetInt("width")
	}
	if flags.Changed("chapter-breaks") {
		cfg.ChapterBreaks, _ = flags.GetBool("chapter-breaks")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("cover-width") {
		cfg.CoverWidth, _ = flags.GetInt("cover-width")
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cliOptions{}, err
	}

	opts := cliOptions{Config: cfg}
	var w io.Writer = cmd.ErrOrStderr()
	switch {
	case cfg.LogFile != "":
		f, err := fs.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cliOptions{}, fmt.Errorf("failed to open --log-file: %w", err)
		}
		w = f
		opts.closeLog = f.Close
	case cmd.Annotations[tuiAnnotation] != "":
		w = io.Discard
	}

	opts.Logger = buildLogger(w, cfg.LogLevel, cfg.LogFormat)
	return opts, nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func defaultOutputPath(inputPath, suffix string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + suffix
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
