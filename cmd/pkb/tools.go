package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pickabook/pkb/internal/exporter"
	"github.com/pickabook/pkb/internal/importer"
	"github.com/pickabook/pkb/internal/linkcheck"
	"github.com/pickabook/pkb/internal/model"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.html>",
		Short: "Import bookmarks from a Netscape HTML export",
		Long: `Import bookmarks from a browser's HTML export. Folder names become tags.
Bookmarks whose URL is already saved are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			bookmarks, err := importer.ParseHTMLBookmarks(file)
			if err != nil {
				return fmt.Errorf("parse HTML: %w", err)
			}
			if _, err := a.load(cmd.Context()); err != nil {
				return err
			}

			var added, skipped int
			err = a.spin(cmd.Context(), "Importing bookmarks", func(ctx context.Context) error {
				var err error
				added, skipped, err = a.agg.Import(ctx, bookmarks)
				return err
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bookmarks", added)
			if skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d skipped)", skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Export bookmarks to Netscape HTML",
		Long:  "Export bookmarks to Netscape HTML, one folder per tag. Defaults to ~/Downloads/pkb-export-<date>.html.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath := ""
			if len(args) == 1 {
				outputPath = args[0]
			} else {
				var err error
				if outputPath, err = exporter.DefaultExportPath(); err != nil {
					return fmt.Errorf("default export path: %w", err)
				}
			}

			idx, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			snap := idx.Snapshot()
			if err := os.WriteFile(outputPath, []byte(exporter.ExportHTML(snap)), 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			all := snap.Entries[model.AllTagName]
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bookmarks, %d tags to %s\n",
				len(all.Bookmarks), len(snap.Names)-1, outputPath)
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	var tag string
	var all bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Find dead and unreachable links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			e, ok := idx.Get(tag)
			if !ok {
				return fmt.Errorf("no tag named %q", tag)
			}

			results := a.checker.Check(cmd.Context(), e.Bookmarks, func(completed, total int) {
				fmt.Fprintf(a.stderr, "\rChecking %d/%d", completed, total)
			})
			if len(results) > 0 {
				fmt.Fprintln(a.stderr)
			}

			out := cmd.OutOrStdout()
			var dead, unreachable int
			for _, r := range results {
				switch r.Status {
				case linkcheck.Dead:
					dead++
				case linkcheck.Unreachable:
					unreachable++
				case linkcheck.Healthy:
					if !all {
						continue
					}
				}
				detail := r.Error
				if r.StatusCode != 0 {
					detail = fmt.Sprintf("%d %s", r.StatusCode, detail)
				}
				fmt.Fprintf(out, "%-11s %6d  %s  %s\n", r.Status, r.Bookmark.ID, r.Bookmark.URL, detail)
			}
			fmt.Fprintf(out, "%d checked, %d dead, %d unreachable\n", len(results), dead, unreachable)
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", model.AllTagName, "Only check bookmarks with this tag")
	cmd.Flags().BoolVar(&all, "all", false, "Also list healthy links")
	return cmd
}
