package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/camera"
	"github.com/classroomhq/faceattend/internal/notify"
	"github.com/classroomhq/faceattend/internal/report"
	"github.com/classroomhq/faceattend/internal/storage"
)

func newCaptureCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run an automatic attendance session",
		Long: `Opens a capture session for one class and date. Every --interval a frame is
taken from the configured source and sent to the recognition service; each
recognized student is checked in once. When --duration elapses or the
command is interrupted, the session is closed and every recognized student
is marked present in the roster.`,
		Example: `  # Replay a directory of frames for 30 seconds
  faceattend capture --class-id 12 --session-date 2024-05-01 --frames ./frames --duration 30s

  # Poll an IP camera until Ctrl+C and save the roster
  faceattend capture --class-id 12 --camera-url http://cam.local/snapshot.jpg --export out/roster.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := sessionKeys(v)
			if err != nil {
				return err
			}
			device, err := cameraDevice(v)
			if err != nil {
				return err
			}
			return runCapture(cmd.Context(), cmd, v, keys, device)
		},
	}

	addSessionFlags(cmd)
	cmd.Flags().String("frames", "", "Directory (or single image file) to read frames from")
	cmd.Flags().Bool("loop", false, "Start over when the frames directory is exhausted")
	cmd.Flags().String("camera-url", "", "Snapshot URL of an IP camera (env FACEATTEND_CAMERA_URL)")
	cmd.Flags().Duration("interval", attendance.DefaultInterval, "Time between captures (env FACEATTEND_INTERVAL)")
	cmd.Flags().Duration("duration", 0, "Stop after this long (default: until interrupted)")
	cmd.Flags().String("export", "", "Save the reconciled roster (.yaml, .json, .jsonl, .parquet or .txt)")
	cmd.Flags().String("reports", "", "Also save every closed session as YAML in this directory, as read by serve --reports")

	return cmd
}

// cameraDevice picks the frame source from the flags
func cameraDevice(v *viper.Viper) (camera.Device, error) {
	if url := v.GetString("camera-url"); url != "" {
		return camera.Snapshot{URL: url}, nil
	}

	path := v.GetString("frames")
	if path == "" {
		return nil, errors.New("one of --frames or --camera-url is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("frames source not found: %w", err)
	}
	if info.IsDir() {
		return camera.Dir{Path: path, Loop: v.GetBool("loop")}, nil
	}
	return camera.File{Path: path}, nil
}

func runCapture(ctx context.Context, cmd *cobra.Command, v *viper.Viper, keys attendance.Keys, device camera.Device) error {
	out := cmd.OutOrStdout()
	store := storage.New()
	reportsDir := v.GetString("reports")

	session := attendance.New(keys, attendance.Config{
		API:       apiClient(v),
		Camera:    device,
		Tokens:    tokenStore(v),
		Notifier:  notify.NewConsole(out),
		Navigator: notify.LoginPrompt{Out: cmd.ErrOrStderr(), Command: "faceattend login --token <jwt>"},
		Interval:  captureInterval(v),
		OnClose: func(sum attendance.Summary) {
			rep := report.FromSummary(sum)
			store.Set(&rep)
			if reportsDir == "" {
				return
			}
			if err := report.Save(rep, filepath.Join(reportsDir, report.FileName(rep))); err != nil {
				slog.Error("Failed to save session report", "dir", reportsDir, "err", err)
			}
		},
	})

	// a failed load is already reported; capture still works without a roster
	if err := session.Load(ctx); err != nil {
		slog.Debug("Roster not loaded", "err", err)
	}

	runCtx := ctx
	if d := v.GetDuration("duration"); d > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if err := session.Open(runCtx); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	fmt.Fprintf(out, "📷 Capturing attendance for class %s on %s (Ctrl+C to finish)\n", keys.ClassID, keys.SessionDate)

	<-runCtx.Done()

	session.Close()
	session.Wait()

	rep, ok := store.Get(keys)
	if !ok {
		return fmt.Errorf("no report recorded for %s", keys)
	}
	if err := report.Write(out, *rep, report.FormatTable); err != nil {
		return err
	}

	if path := v.GetString("export"); path != "" {
		if err := report.Save(*rep, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Roster saved to: %s\n", path)
	}
	return nil
}
