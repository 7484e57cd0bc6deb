package main

import (
	"encoding/json"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCollectionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "collection",
		Short: "List titles moved into the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				items, err := c.Collection(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(items)
				}
				if len(items) == 0 {
					printEmpty(out, "collection items")
					return nil
				}
				writer := newTable(out, table.Row{"ID", "Type", "Title", "Year", "Added", "Path"})
				for _, item := range items {
					writer.AppendRow(table.Row{item.ID, item.ContentType, item.Title, formatIntPtr(item.Year), humanize.Time(item.AddedAt), item.FinalPath})
				}
				writer.Render()
				return nil
			})
		},
	}
}
