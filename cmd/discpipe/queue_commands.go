package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"discpipe/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drive jobs through the pipeline",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueApproveCommand(ctx))
	queueCmd.AddCommand(newQueueIdentifyCommand(ctx))
	queueCmd.AddCommand(newQueueSkipCommand(ctx))
	queueCmd.AddCommand(newQueuePreIdentifyCommand(ctx))
	queueCmd.AddCommand(newQueueArchiveCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var limit int
	var includeArchived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				jobs, err := c.ListJobs(cmd.Context(), queue.Status(status), limit, includeArchived)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(jobs)
				}
				if len(jobs) == 0 {
					printEmpty(out, "jobs")
					return nil
				}
				writer := newTable(out, table.Row{"ID", "Status", "Drive", "Label", "Title", "Confidence", "Updated"})
				for _, j := range jobs {
					writer.AppendRow(table.Row{j.ID, j.Status, j.DriveID, formatOrDash(j.DiscLabel), formatTitle(j), formatConfidence(j.Confidence), formatRelativeTime(j)})
				}
				writer.Render()
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending, ripping, ripped, encoding, encoded, identifying, review, moving, complete, failed, archived)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of jobs to return when no status filter is given")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Include archived jobs in unfiltered listings")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show full detail for a single job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *clientType) error {
				job, err := c.GetJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(job)
				}
				writer := newTable(out, table.Row{"Field", "Value"})
				writer.AppendRow(table.Row{"ID", job.ID})
				writer.AppendRow(table.Row{"Status", job.Status})
				writer.AppendRow(table.Row{"Drive", job.DriveID})
				writer.AppendRow(table.Row{"Disc label", formatOrDash(job.DiscLabel)})
				writer.AppendRow(table.Row{"Content type", job.ContentType})
				writer.AppendRow(table.Row{"Title", formatTitle(job)})
				writer.AppendRow(table.Row{"Catalog ID", formatInt64Ptr(job.CatalogID)})
				writer.AppendRow(table.Row{"Confidence", formatConfidence(job.Confidence)})
				writer.AppendRow(table.Row{"Rip path", formatOrDash(job.RipPath)})
				writer.AppendRow(table.Row{"Encode path", formatOrDash(job.EncodePath)})
				writer.AppendRow(table.Row{"Final path", formatOrDash(job.FinalPath)})
				writer.AppendRow(table.Row{"Error", formatOrDash(job.ErrorMessage)})
				writer.AppendRow(table.Row{"Created", job.CreatedAt})
				writer.AppendRow(table.Row{"Updated", job.UpdatedAt})
				writer.Render()
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show an aggregate status-count summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *clientType) error {
				health, err := c.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ctx.JSONMode() {
					return json.NewEncoder(out).Encode(health)
				}
				writer := newTable(out, table.Row{"Pending", "Processing", "Review", "Failed", "Completed", "Total"})
				writer.AppendRow(table.Row{health.Pending, health.Processing, health.Review, health.Failed, health.Completed, health.Total})
				writer.Render()
				return nil
			})
		},
	}
}

func newQueueApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a REVIEW job, transitioning it to MOVING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *clientType) error {
				status, err := c.Approve(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s\n", id, status)
				return nil
			})
		},
	}
}

func newQueueIdentifyCommand(ctx *commandContext) *cobra.Command {
	var title string
	var year int

	cmd := &cobra.Command{
		Use:   "identify <id>",
		Short: "Override a REVIEW job's identification and approve it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *clientType) error {
				status, err := c.Identify(cmd.Context(), id, title, year)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s\n", id, status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Correct title")
	cmd.Flags().IntVar(&year, "year", 0, "Release year")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newQueueSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <id>",
		Short: "Reject a REVIEW job, failing it without touching the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *clientType) error {
				status, err := c.Skip(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s\n", id, status)
				return nil
			})
		},
	}
}

func newQueuePreIdentifyCommand(ctx *commandContext) *cobra.Command {
	var title string
	var year int

	cmd := &cobra.Command{
		Use:   "pre-identify <id>",
		Short: "Record identification for a job before it reaches review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *clientType) error {
				status, err := c.PreIdentify(cmd.Context(), id, title, year)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s (unchanged; identifier will pick this up automatically)\n", id, status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().IntVar(&year, "year", 0, "Release year")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newQueueArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a terminal (COMPLETE or FAILED) job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *clientType) error {
				status, err := c.Archive(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s\n", id, status)
				return nil
			})
		},
	}
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}
