package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tunescan/internal/config"
	"tunescan/internal/queue"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Inspect screenshots that have been scanned",
	}
	imagesCmd.AddCommand(newImagesListCommand(ctx))
	imagesCmd.AddCommand(newImagesForgetCommand(ctx))
	return imagesCmd
}

func newImagesListCommand(ctx *commandContext) *cobra.Command {
	var showText bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scanned screenshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				images, err := store.Images(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(images) == 0 {
					fmt.Fprintln(out, "No images scanned yet")
					return nil
				}
				if showText {
					for _, img := range images {
						fmt.Fprintf(out, "== %s ==\n%s\n\n", img.Filename, img.FullText)
					}
					return nil
				}
				rows := make([][]string, 0, len(images))
				for _, img := range images {
					rows = append(rows, []string{
						img.Filename,
						fmt.Sprintf("%d", img.TrackCount),
						formatDisplayTime(img.CreatedAt),
					})
				}
				fmt.Fprint(out, renderTable([]string{"Image", "Lines", "Scanned"}, rows, 1))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showText, "text", false, "Print the OCR text of each image")
	return cmd
}

func newImagesForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <image>...",
		Short: "Forget screenshots so the next scan reads them again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, name := range args {
					ok, err := store.ForgetImage(cmd.Context(), name)
					if err != nil {
						return err
					}
					if ok {
						fmt.Fprintf(out, "Forgot %s\n", name)
					} else {
						fmt.Fprintf(out, "%s was not scanned\n", name)
					}
				}
				return nil
			})
		},
	}
}
