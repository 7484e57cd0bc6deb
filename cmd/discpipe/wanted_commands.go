package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"discpipe/internal/queue"
)

func newWantedCommand(ctx *commandContext) *cobra.Command {
	wantedCmd := &cobra.Command{
		Use:   "wanted",
		Short: "Manage the user-maintained wanted list",
	}
	wantedCmd.AddCommand(newWantedListCommand(ctx))
	wantedCmd.AddCommand(newWantedAddCommand(ctx))
	wantedCmd.AddCommand(newWantedRemoveCommand(ctx))
	return wantedCmd
}

func newWantedListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wanted items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				items, err := c.Wanted(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(items)
				}
				if len(items) == 0 {
					printEmpty(out, "wanted items")
					return nil
				}
				writer := newTable(out, table.Row{"ID", "Type", "Title", "Year", "Catalog ID", "Notes"})
				for _, item := range items {
					writer.AppendRow(table.Row{item.ID, item.ContentType, item.Title, formatIntPtr(item.Year), formatInt64Ptr(item.CatalogID), formatOrDash(item.Notes)})
				}
				writer.Render()
				return nil
			})
		},
	}
}

func newWantedAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var year int
	var contentType string
	var catalogID int64
	var notes string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry to the wanted list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				var yearPtr *int
				if year != 0 {
					yearPtr = &year
				}
				var catalogPtr *int64
				if catalogID != 0 {
					catalogPtr = &catalogID
				}
				id, err := c.AddWanted(cmd.Context(), title, yearPtr, queue.ContentType(contentType), catalogPtr, "", notes)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added wanted item %d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().IntVar(&year, "year", 0, "Release year (optional)")
	cmd.Flags().StringVar(&contentType, "content-type", string(queue.ContentMovie), "movie or tv_season")
	cmd.Flags().Int64Var(&catalogID, "catalog-id", 0, "Catalog id, if known")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newWantedRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an entry from the wanted list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid wanted id %q", args[0])
			}
			return ctx.withClient(func(c *clientType) error {
				if err := c.RemoveWanted(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed wanted item %d\n", id)
				return nil
			})
		},
	}
}
