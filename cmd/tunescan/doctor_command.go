package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tunescan/internal/config"
	"tunescan/internal/preflight"
	"tunescan/internal/queue"
	"tunescan/internal/workflow"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories, and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				problems := 0
				report := func(name string, ok, optional bool, detail string) {
					kind := statusOK
					switch {
					case !ok && optional:
						kind = statusWarn
					case !ok:
						kind = statusError
						problems++
					}
					fmt.Fprintln(out, renderStatusLine(name, kind, detail, colorize))
				}

				printSection(out, "Dependencies", colorize)
				for _, dep := range preflight.CheckSystemDeps(cfg) {
					detail := dep.Path
					if !dep.Available {
						detail = dep.Detail
					}
					report(dep.Name, dep.Available, dep.Optional, detail)
				}

				printSection(out, "Paths", colorize)
				for _, r := range preflight.RunAll(cmd.Context(), cfg) {
					report(r.Name, r.Passed, false, r.Detail)
				}

				printSection(out, "Services", colorize)
				if offline {
					fmt.Fprintln(out, renderStatusLine("YouTube Music", statusInfo, "skipped (--offline)", colorize))
				} else {
					r := preflight.CheckCatalog(cmd.Context(), cfg.Search.BaseURL)
					report(r.Name, r.Passed, false, r.Detail)
				}
				spotify := preflight.CheckSpotify(cfg)
				report(spotify.Name, spotify.Passed, true, spotify.Detail)
				notify := "Disabled"
				if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
					notify = cfg.Notifications.NtfyTopic
				}
				fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, notify, colorize))

				mgr := workflow.NewManager(cfg, store, nil)
				status, err := mgr.Status(cmd.Context())
				_ = mgr.Close()
				if err != nil {
					return err
				}
				printSection(out, "Stages", colorize)
				for _, h := range status.StageHealth {
					report(h.Name, h.Ready, false, h.Detail)
				}

				printSection(out, "Queue", colorize)
				q := status.Queue
				fmt.Fprintln(out, renderStatusLine("Tracks", statusInfo,
					fmt.Sprintf("%d total, %d pending, %d found, %d downloaded, %d not found, %d failed",
						q.Total, q.Pending, q.Found, q.Downloaded, q.NotFound, q.Failed), colorize))

				if problems > 0 {
					return fmt.Errorf("%d check(s) failed", problems)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network checks")
	return cmd
}

func printSection(out io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
}
