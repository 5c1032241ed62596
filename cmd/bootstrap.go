package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/logging"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap <username>",
	Short: "Enroll the first user with the admin role",
	Long: `Enroll the very first user. This works only while the template store
is empty; the user is stored with the admin role and can then authorize
further enrollments by verifying.

Example:
  biogate bootstrap alice --face alice.jpg --voice alice.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)

	bootstrapCmd.Flags().String("face", "", "Path to the face image")
	bootstrapCmd.Flags().String("voice", "", "Path to the voice recording")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	username := args[0]
	cfg := config.Load()

	faceData, err := readSample(mustGetString(cmd, "face"), "face")
	if err != nil {
		return err
	}
	voiceData, err := readSample(mustGetString(cmd, "voice"), "voice")
	if err != nil {
		return err
	}

	svc, st, _, err := buildService(cfg, logging.NewJSON(os.Stderr, slog.LevelWarn))
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := svc.BootstrapAdmin(context.Background(), username, faceData, voiceData)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	fmt.Printf("Bootstrapped admin user '%s'\n", meta["username"])
	fmt.Printf("Created: %s\n", meta["created_at"])
	return nil
}
