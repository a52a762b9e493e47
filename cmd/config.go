package cmd

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/credentials"
	"github.com/classroomhq/faceattend/internal/recognition"
)

// envPrefix scopes every environment variable, e.g. FACEATTEND_API_URL
const envPrefix = "FACEATTEND"

// newConfig reads flags first, then FACEATTEND_* variables, then defaults
func newConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("api-url", "http://localhost:8000")
	v.SetDefault("origin", "http://localhost:8888")
	v.SetDefault("token-file", credentials.DefaultPath())
	v.SetDefault("interval", attendance.DefaultInterval)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// bindFlags makes viper see the command's flags. Called from PreRun hooks
// because every command owns its own flag set.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return v.BindPFlags(cmd.InheritedFlags())
}

func setupLogging(v *viper.Viper) {
	level := slog.LevelInfo
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func tokenStore(v *viper.Viper) *credentials.FileStore {
	return credentials.NewFileStore(v.GetString("token-file"))
}

func apiClient(v *viper.Viper) *recognition.Client {
	return recognition.New(v.GetString("api-url"), tokenStore(v))
}

func captureInterval(v *viper.Viper) time.Duration {
	d := v.GetDuration("interval")
	if d <= 0 {
		return attendance.DefaultInterval
	}
	return d
}

// sessionKeys reads --class-id and --session-date. The date defaults to today.
func sessionKeys(v *viper.Viper) (attendance.Keys, error) {
	keys := attendance.Keys{
		ClassID:     v.GetString("class-id"),
		SessionDate: v.GetString("session-date"),
	}
	if keys.SessionDate == "" {
		keys.SessionDate = time.Now().Format("2006-01-02")
	}
	return keys, keys.Validate()
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("class-id", "", "Class to take attendance for")
	cmd.Flags().String("session-date", "", "Session date as YYYY-MM-DD (default today)")
}
