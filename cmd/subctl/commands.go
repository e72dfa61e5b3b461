package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"botsub/internal/db"
)

type openFunc func() (*db.Store, func(), error)

func newRootCmd(open openFunc) *cobra.Command {
	var store *db.Store
	var closeStore func()

	rootCmd := &cobra.Command{
		Use:          "subctl",
		Short:        "Manage subscription categories and members",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			store, closeStore, err = open()
			return err
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if closeStore != nil {
				closeStore()
			}
		},
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "bootstrap",
			Short: "Create the tables and indexes if they are missing",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := store.Bootstrap(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories with their member counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				subs, err := store.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				for _, sub := range subs {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\t%s\t%s\n", sub.ID, sub.Category, sub.Count,
						strings.Join(sub.SubKeywords, ","), strings.Join(sub.UnsubKeywords, ","))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create <category>",
			Short: "Create a category with default keywords",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sub, err := store.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %q with id %d\n", sub.Category, sub.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a category and its members",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid id %q", args[0])
				}
				return store.Delete(cmd.Context(), id)
			},
		},
		&cobra.Command{
			Use:   "subscribe <user> <category>",
			Short: "Add a user to a category",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return store.Subscribe(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "unsubscribe <user> <category>",
			Short: "Remove a user from a category",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return store.Unsubscribe(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "subscribed <user>",
			Short: "Print the categories a user belongs to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				categories, err := store.GetSubscribed(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, c := range categories {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			},
		},
	)
	return rootCmd
}
