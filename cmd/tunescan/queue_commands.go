package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tunescan/internal/config"
	"tunescan/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the track queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show track counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, 1))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				tracks, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, buildTrackViews(tracks))
				}
				if len(tracks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Track", "Album", "Status", "Detail", "Created"},
					buildQueueListRows(tracks),
					0,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by track status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tracks as JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var notFound bool
	var failed bool

	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Send not-found tracks back to search or failed tracks back to download",
		Long: "Without flags both not_found and failed tracks are retried. " +
			"Pass ids to limit the retry to specific tracks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			if !notFound && !failed {
				notFound, failed = true, true
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if notFound {
					n, err := store.RetryNotFound(cmd.Context(), ids...)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued %d not-found track(s) for search\n", n)
				}
				if failed {
					n, err := store.RetryFailed(cmd.Context(), ids...)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued %d failed track(s) for download\n", n)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&notFound, "not-found", false, "Retry tracks the catalog could not resolve")
	cmd.Flags().BoolVar(&failed, "failed", false, "Retry tracks whose download failed")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var status string
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove tracks by status, or everything with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			status = strings.TrimSpace(status)
			if all == (status != "") {
				return errors.New("specify exactly one of --status or --all")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if all {
					removed, err := store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d track(s) and the image log\n", removed)
					return nil
				}
				parsed, ok := queue.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				removed, err := store.ClearStatus(cmd.Context(), parsed)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d %s track(s)\n", removed, formatStatusLabel(string(parsed)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Status to clear, e.g. not_found")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every track and forget every image")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove tracks by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					ok, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if ok {
						fmt.Fprintf(out, "Removed track %d\n", id)
					} else {
						fmt.Fprintf(out, "Track %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}
