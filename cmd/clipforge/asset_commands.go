package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipforge/internal/api"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Copy a video into the library and register it for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			asset, err := ctx.client().Import(cmd.Context(), path)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, asset)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s (pending review)\n", asset.Title, asset.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := ctx.client().ListAssets(cmd.Context(), status)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, assets)
			}
			if len(assets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No assets found")
				return nil
			}

			rows := make([][]string, 0, len(assets))
			for _, asset := range assets {
				rows = append(rows, []string{
					asset.ID,
					asset.Title,
					asset.Status,
					formatDuration(asset.Metadata),
					formatBytes(asset.Metadata),
					formatAge(asset.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Status", "Duration", "Size", "Added"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, rejected)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <asset-id>",
		Short: "Show an asset with its clips and job state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := ctx.client().GetAsset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, detail)
			}

			out := cmd.OutOrStdout()
			asset := detail.Asset
			fmt.Fprintf(out, "%s (%s)\n", asset.Title, asset.ID)
			fmt.Fprintf(out, "  Status:   %s\n", asset.Status)
			fmt.Fprintf(out, "  Source:   %s\n", asset.SourcePath)
			if meta := asset.Metadata; meta != nil {
				fmt.Fprintf(out, "  Duration: %s\n", formatDuration(meta))
				if meta.Width != nil && meta.Height != nil {
					fmt.Fprintf(out, "  Video:    %dx%d", *meta.Width, *meta.Height)
					if meta.FrameRate != nil {
						fmt.Fprintf(out, " @ %.3f fps", *meta.FrameRate)
					}
					if meta.CodecName != nil {
						fmt.Fprintf(out, " (%s)", *meta.CodecName)
					}
					fmt.Fprintln(out)
				}
				if meta.AspectRatio != nil {
					fmt.Fprintf(out, "  Aspect:   %s\n", *meta.AspectRatio)
				}
				if meta.RotationRaw != nil {
					fmt.Fprintf(out, "  Rotation: %s\n", *meta.RotationRaw)
				}
				fmt.Fprintf(out, "  Size:     %s\n", formatBytes(meta))
			}
			if asset.ErrorMessage != "" {
				fmt.Fprintf(out, "  Error:    %s\n", asset.ErrorMessage)
			}
			if detail.Job != nil {
				fmt.Fprintf(out, "  Job:      %s", detail.Job.State)
				if detail.Job.ErrorText != "" {
					fmt.Fprintf(out, " (%s)", detail.Job.ErrorText)
				}
				fmt.Fprintln(out)
			}

			if len(detail.Clips) == 0 {
				fmt.Fprintln(out, "  No clips generated")
				return nil
			}
			rows := make([][]string, 0, len(detail.Clips))
			for _, clip := range detail.Clips {
				duration := "unknown"
				if clip.DurationSeconds != nil {
					duration = formatSecondsValue(*clip.DurationSeconds)
				}
				size := "unknown"
				if clip.ByteSize != nil {
					size = humanize.IBytes(uint64(*clip.ByteSize))
				}
				rows = append(rows, []string{
					strconv.Itoa(clip.Index),
					filepath.Base(clip.Path),
					duration,
					size,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "File", "Duration", "Size"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <asset-id>",
		Short: "Approve an asset and start clip generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Approve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %s approved, generation queued\n", resp.AssetID)
			return nil
		},
	}
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <asset-id>",
		Short: "Reject an asset so no clips are generated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Reject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %s rejected\n", resp.AssetID)
			return nil
		},
	}
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <asset-id>",
		Short: "Queue a generation run for an approved asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Regenerate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generation queued for asset %s\n", resp.AssetID)
			return nil
		},
	}
}

func newRescanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan <asset-id>",
		Short: "Reconcile clip records with the files on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Rescan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d clip files, upserted %d records\n", resp.Scanned, resp.Upserted)
			return nil
		},
	}
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "job <asset-id>",
		Short: "Show the generation job state for an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := ctx.client().Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, job)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State: %s\n", job.State)
			if job.ErrorText != "" {
				fmt.Fprintf(out, "Error: %s\n", job.ErrorText)
			}
			if job.ExitCode != nil {
				fmt.Fprintf(out, "Exit code: %d\n", *job.ExitCode)
			}
			if job.UpdatedAt != "" {
				fmt.Fprintf(out, "Updated: %s\n", job.UpdatedAt)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <asset-id>",
		Short: "Delete an asset, its clips, and all its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %s removed\n", args[0])
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the daemon is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := ctx.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon %s, version %s, up %s\n",
				health.Status, health.Version, (time.Duration(health.UptimeS) * time.Second).String())
			return nil
		},
	}
}

func formatDuration(meta *api.MetadataResponse) string {
	if meta == nil || meta.DurationSeconds == nil {
		return "unknown"
	}
	return formatSecondsValue(*meta.DurationSeconds)
}

func formatSecondsValue(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Round(time.Second).String()
}

func formatBytes(meta *api.MetadataResponse) string {
	if meta == nil || meta.ByteSize == nil || *meta.ByteSize < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(*meta.ByteSize))
}

func formatAge(created string) string {
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return created
	}
	return humanize.Time(ts)
}
