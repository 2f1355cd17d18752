package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tunescan/internal/config"
	"tunescan/internal/logging"
	"tunescan/internal/queue"
	"tunescan/internal/workflow"
)

type pipelinePhase struct {
	use   string
	short string
	run   func(*workflow.Manager, context.Context) (workflow.Summary, error)
}

func newPipelineCommands(ctx *commandContext) []*cobra.Command {
	phases := []pipelinePhase{
		{use: "run", short: "Scan screenshots, search matches, and download them", run: (*workflow.Manager).Run},
		{use: "scan", short: "OCR new screenshots into pending tracks", run: (*workflow.Manager).RunScan},
		{use: "search", short: "Resolve pending tracks against YouTube Music", run: (*workflow.Manager).RunSearch},
		{use: "download", short: "Download and tag matched tracks", run: (*workflow.Manager).RunDownload},
	}
	cmds := make([]*cobra.Command, 0, len(phases)+1)
	for _, phase := range phases {
		cmds = append(cmds, newPhaseCommand(ctx, phase))
	}
	cmds = append(cmds, newWatchCommand(ctx))
	return cmds
}

func newPhaseCommand(ctx *commandContext, phase pipelinePhase) *cobra.Command {
	var assumeYes bool
	cmd := &cobra.Command{
		Use:   phase.use,
		Short: phase.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(assumeYes, func(mgr *workflow.Manager) error {
				summary, err := phase.run(mgr, cmd.Context())
				printSummary(cmd.OutOrStdout(), phase.use, summary)
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Download large files without asking")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process new screenshots as they appear in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(assumeYes, func(mgr *workflow.Manager) error {
				return mgr.Watch(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Download large files without asking")
	return cmd
}

func (c *commandContext) withManager(assumeYes bool, fn func(*workflow.Manager) error) error {
	logger, err := c.logger()
	if err != nil {
		return err
	}
	return c.withStore(func(cfg *config.Config, store *queue.Store) error {
		mgr := workflow.NewManager(cfg, store, logger, workflow.WithAssumeYes(assumeYes))
		defer func() {
			if err := mgr.Close(); err != nil {
				logger.Warn("release catalog clients", logging.Error(err))
			}
		}()
		if err := fn(mgr); err != nil {
			logger.Error("command failed", logging.Error(err))
			return err
		}
		return nil
	})
}

func printSummary(out io.Writer, phase string, s workflow.Summary) {
	rows := [][]string{}
	add := func(label string, value int, show bool) {
		if show {
			rows = append(rows, []string{label, fmt.Sprintf("%d", value)})
		}
	}
	scan := phase == "run" || phase == "scan"
	search := phase == "run" || phase == "search"
	download := phase == "run" || phase == "download"
	add("Images scanned", s.ImagesScanned, scan)
	add("Images failed", s.ImagesFailed, scan && s.ImagesFailed > 0)
	add("Tracks added", s.TracksAdded, scan)
	add("Matched", s.Matched, search)
	add("Not found", s.NotFound, search)
	add("Duplicates", s.Duplicates, search)
	add("Downloaded", s.Downloaded, download)
	add("Skipped", s.Skipped, download)
	add("Failed", s.Failed, download)
	fmt.Fprint(out, renderTable([]string{"Result", "Count"}, rows, 1))
}
