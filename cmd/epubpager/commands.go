package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yuanying/epubpager/internal/book"
	"github.com/yuanying/epubpager/internal/epub"
	"github.com/yuanying/epubpager/internal/library"
	"github.com/yuanying/epubpager/internal/metadata"
	"github.com/yuanying/epubpager/internal/tui"
)

var errNoCover = errors.New("book has no cover image")

// bookFile resolves a command argument to a book file. An argument that
// names no file and does not look like a path is looked up as a slug in the
// configured library.
func bookFile(fs afero.Fs, opts cliOptions, arg string) (string, error) {
	if ok, _ := afero.Exists(fs, arg); ok {
		return arg, nil
	}
	if strings.ContainsAny(arg, `/\`) || strings.EqualFold(filepath.Ext(arg), ".epub") {
		return arg, nil
	}

	entries, err := library.Scan(fs, opts.Config.Library, opts.Logger)
	if err != nil {
		return "", err
	}
	if e, ok := library.Find(entries, arg); ok {
		opts.Logger.Debug("resolved library slug", "slug", arg, "path", e.Path)
		return e.Path, nil
	}
	return "", fmt.Errorf("%s: no such file or book in library %s", arg, opts.Config.Library)
}

func bookOptions(opts cliOptions) book.Options {
	return book.Options{
		ViewportWidth: opts.Config.ViewportWidth,
		ChapterBreaks: opts.Config.ChapterBreaks,
		Logger:        opts.Logger,
	}
}

func newReadCmd(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:         "read <file.epub|slug>",
		Short:       "Open a book in the terminal reader",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{tuiAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(fs, cmd, args)
			if err != nil {
				return err
			}
			defer opts.Close()

			path, err := bookFile(fs, opts, args[0])
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(fs, path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			surface := tui.New(tui.Options{Logger: opts.Logger})
			session := book.NewSession(surface, bookOptions(opts))
			surface.Bind(session.Navigator())

			b, err := session.Open(data)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			if b.Empty() {
				return fmt.Errorf("%s: %w", path, epub.ErrEmptyBook)
			}
			surface.SetTitle(b.Metadata.Title)

			opts.Logger.Info("reading",
				"path", path,
				"title", b.Metadata.Title,
				"pages", len(b.Pages),
				"generation", session.Generation())
			return surface.Run()
		},
	}
}

func newPagesCmd(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "pages <file.epub|slug>",
		Short: "Print the pages of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(fs, cmd, args)
			if err != nil {
				return err
			}
			defer opts.Close()

			path, err := bookFile(fs, opts, args[0])
			if err != nil {
				return err
			}
			b, err := book.LoadFile(fs, path, bookOptions(opts))
			if err != nil {
				return err
			}
			if b.Empty() {
				return fmt.Errorf("%s: %w", path, epub.ErrEmptyBook)
			}

			out := cmd.OutOrStdout()
			for _, p := range b.Pages {
				fmt.Fprintf(out, "--- page %d / %d (%d words) ---\n%s\n\n", p.Index+1, len(b.Pages), p.Words, p.Text)
			}
			return nil
		},
	}
}

type infoOutput struct {
	metadata.Metadata
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func newInfoCmd(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.epub|slug>",
		Short: "Print book metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(fs, cmd, args)
			if err != nil {
				return err
			}
			defer opts.Close()

			path, err := bookFile(fs, opts, args[0])
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(fs, path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			res := metadata.Extract(data, opts.Logger.With("path", path))
			out := infoOutput{Metadata: res.Metadata, Status: res.Status.String()}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newCoverCmd(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover <file.epub|slug>",
		Short: "Write the cover image of a book as a JPEG thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(fs, cmd, args)
			if err != nil {
				return err
			}
			defer opts.Close()

			path, err := bookFile(fs, opts, args[0])
			if err != nil {
				return err
			}
			outputPath, _ := cmd.Flags().GetString("output")
			if outputPath == "" {
				outputPath = defaultOutputPath(path, "-cover.jpg")
			}

			data, err := afero.ReadFile(fs, path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			cover, err := book.ExtractCoverImage(data)
			if err != nil {
				return fmt.Errorf("failed to extract cover from %s: %w", path, err)
			}
			if cover == nil {
				return fmt.Errorf("%s: %w", path, errNoCover)
			}

			thumb, err := cover.Thumbnail(opts.Config.CoverWidth)
			if err != nil {
				return err
			}
			if err := afero.WriteFile(fs, outputPath, thumb, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}

			opts.Logger.Info("cover written",
				"source", cover.Path,
				"method", cover.DetectionMethod,
				"output", outputPath,
				"bytes", len(thumb))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default: input name with -cover.jpg)")
	cmd.Flags().Int("cover-width", 600, "Maximum thumbnail width in pixels; 0 keeps the original size")
	return cmd
}

func newLibraryCmd(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "library [dir]",
		Short: "List the books found under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(fs, cmd, args)
			if err != nil {
				return err
			}
			defer opts.Close()

			root := opts.Config.Library
			if len(args) == 1 {
				root = args[0]
			}

			entries, err := library.Scan(fs, root, opts.Logger)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tTITLE\tAUTHOR\tSTATUS\tPATH")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Slug, e.Metadata.Title, e.Metadata.Author, e.Status, e.Path)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			opts.Logger.Debug("library scanned", "root", root, "books", len(entries))
			return nil
		},
	}
}
