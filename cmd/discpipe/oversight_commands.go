package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newOversightCommand(ctx *commandContext) *cobra.Command {
	oversightCmd := &cobra.Command{
		Use:   "oversight",
		Short: "Detect and repair impossible or stuck job states",
	}
	oversightCmd.AddCommand(newOversightCheckCommand(ctx))
	oversightCmd.AddCommand(newOversightFixEncodingCommand(ctx))
	oversightCmd.AddCommand(newOversightHistoryCommand(ctx))
	oversightCmd.AddCommand(newActiveModeCommand(ctx))
	return oversightCmd
}

func newOversightCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report current consistency violations and stuck jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				issues, err := c.OversightCheck(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(issues)
				}
				if len(issues) == 0 {
					fmt.Fprintln(out, "No issues detected.")
					return nil
				}
				writer := newTable(out, table.Row{"Kind", "Message", "Job IDs"})
				for _, issue := range issues {
					writer.AppendRow(table.Row{issue.Kind, issue.Message, issue.JobIDs})
				}
				writer.Render()
				return nil
			})
		},
	}
}

func newOversightFixEncodingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fix-encoding",
		Short: "Revert extra ENCODING jobs to RIPPED, keeping the most recent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				repaired, err := c.OversightFixEncoding(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(map[string]int{"repaired": repaired})
				}
				fmt.Fprintf(out, "Repaired %d job(s).\n", repaired)
				return nil
			})
		},
	}
}

func newOversightHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent oversight repair actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				events, err := c.OversightHistory(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(events)
				}
				if len(events) == 0 {
					fmt.Fprintln(out, "No repair actions recorded.")
					return nil
				}
				writer := newTable(out, table.Row{"When", "Kind", "Message", "Repaired"})
				for _, event := range events {
					writer.AppendRow(table.Row{humanize.Time(event.OccurredAt), event.Kind, event.Message, event.RepairedCount})
				}
				writer.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	return cmd
}

func newActiveModeCommand(ctx *commandContext) *cobra.Command {
	activeModeCmd := &cobra.Command{
		Use:   "active-mode",
		Short: "Inspect or toggle active mode",
	}
	activeModeCmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Flip active mode and print the new value",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				active, err := c.ToggleActiveMode(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active mode: %v\n", active)
				return nil
			})
		},
	})
	var setValue bool
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Pin active mode to a specific value",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				if err := c.SetActiveMode(cmd.Context(), setValue); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active mode: %v\n", setValue)
				return nil
			})
		},
	}
	setCmd.Flags().BoolVar(&setValue, "value", true, "Desired active mode value")
	activeModeCmd.AddCommand(setCmd)
	return activeModeCmd
}
