package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/picker"
	"github.com/pickabook/pkb/internal/view"
)

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their bookmark counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range idx.Names() {
				e, _ := idx.Get(name)
				fmt.Fprintf(out, "%-24s %d\n", name, len(e.Bookmarks))
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var tag, sortBy, filter string
	var remote bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List bookmarks",
		Long: `List bookmarks of one tag ("All" by default), newest first or by title.
With --filter only titles fuzzily matching the query are shown, best
match first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := view.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			idx, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			var list []model.Bookmark
			if remote {
				if list, err = a.agg.ByTag(cmd.Context(), tag); err != nil {
					return err
				}
				list = a.sorter.Sort(list, key)
			} else {
				if _, ok := idx.Get(tag); !ok {
					return fmt.Errorf("no tag named %q", tag)
				}
				list = a.sorter.Sorted(idx, tag, key)
			}

			out := cmd.OutOrStdout()
			if filter != "" {
				for _, m := range view.Filter(list, filter) {
					printBookmark(out, m.Bookmark)
				}
				return nil
			}
			for _, b := range list {
				printBookmark(out, b)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", model.AllTagName, "Tag to list")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "recent", "Sort order: recent or title")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Fuzzy title filter")
	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the tag's bookmarks from the service instead of the loaded index")
	return cmd
}

func printBookmark(w io.Writer, b model.Bookmark) {
	fmt.Fprintf(w, "%6d  %s\n", b.ID, b.Title)
	line := "        " + b.URL
	if tags := b.UniqueTags(); len(tags) > 0 {
		line += "  #" + strings.Join(tags, " #")
	}
	fmt.Fprintln(w, line)
}

func newAddCmd(a *app) *cobra.Command {
	var title, description string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.load(cmd.Context()); err != nil {
				return err
			}
			if title == "" {
				title = args[0]
			}
			created, err := a.agg.Create(cmd.Context(), model.NewBookmark(model.NewBookmarkParams{
				Title:       title,
				URL:         args[0],
				Description: description,
				Tags:        tags,
			}))
			if err != nil && created.ID == 0 {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d: %s\n", created.ID, created.Title)
			return err
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title (default: the URL)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag, repeatable or comma separated")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var title, url, description string
	var tags []string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a bookmark",
		Long:  "Change a bookmark. Only the given flags are applied; --tag replaces all tags.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			idx, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			b, ok := idx.Bookmark(id)
			if !ok {
				return fmt.Errorf("no bookmark with id %d", id)
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				b.Title = title
			}
			if flags.Changed("url") {
				b.URL = url
			}
			if flags.Changed("description") {
				b.Description = description
			}
			if flags.Changed("tag") {
				b.Tags = append([]string{}, tags...)
			}

			if err := a.agg.Modify(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d: %s\n", b.ID, b.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&url, "url", "", "New URL")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "New tags, repeatable or comma separated")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete bookmarks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if _, err := a.load(cmd.Context()); err != nil {
				return err
			}
			for _, id := range ids {
				if err := a.agg.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", id)
			}
			return nil
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <query>",
		Short: "Fuzzy search titles and open the chosen bookmark",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			all, _ := idx.Get(model.AllTagName)
			results := view.Filter(all.Bookmarks, query)

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No bookmarks found for '%s'\n", query)
				return nil
			}

			var selected *model.Bookmark
			if len(results) == 1 {
				// Single result - select it directly
				selected = &results[0].Bookmark
			} else {
				if selected, err = runPicker(results, query); err != nil {
					return fmt.Errorf("picker: %w", err)
				}
				if selected == nil {
					return nil
				}
			}

			fmt.Fprintf(out, "Opening: %s\n", selected.Title)
			return openURL(selected.URL)
		},
	}
}

// runPicker is a variable so tests can choose without a terminal.
var runPicker = picker.Run

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bookmark id must be a positive number: %q", s)
	}
	return id, nil
}
