package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotiCmd(a *app) *cobra.Command {
	var unread bool

	noti := &cobra.Command{
		Use:     "noti",
		Aliases: []string{"notifications"},
		Short:   "List bookmark reminders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadNotifications(cmd); err != nil {
				return err
			}
			list := a.center.List()
			if unread {
				list = a.center.Unread()
			}
			out := cmd.OutOrStdout()
			for _, n := range list {
				mark := "*"
				if n.Check {
					mark = " "
				}
				fmt.Fprintf(out, "%s %6d  %s  %s\n", mark, n.ID, n.NotiDate, n.Message)
				fmt.Fprintf(out, "          %s\n", n.Bookmark.URL)
			}
			return nil
		},
	}
	noti.Flags().BoolVarP(&unread, "unread", "u", false, "Only show unread reminders")

	noti.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark a reminder read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.auth.RequireLogin(); err != nil {
				return err
			}
			if err := a.center.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d read\n", id)
			return nil
		},
	})

	noti.AddCommand(&cobra.Command{
		Use:   "open <id>",
		Short: "Open a reminder's bookmark and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.loadNotifications(cmd); err != nil {
				return err
			}
			n, ok := a.center.Get(id)
			if !ok {
				return fmt.Errorf("no notification with id %d", id)
			}
			url, markErr := a.center.Open(cmd.Context(), n)
			fmt.Fprintf(cmd.OutOrStdout(), "Opening: %s\n", url)
			if err := openURL(url); err != nil {
				return err
			}
			return markErr
		},
	})

	return noti
}

func (a *app) loadNotifications(cmd *cobra.Command) error {
	if err := a.auth.RequireLogin(); err != nil {
		return err
	}
	return a.center.Load(cmd.Context())
}
