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

var enrollCmd = &cobra.Command{
	Use:   "enroll <username>",
	Short: "Enroll a new user",
	Long: `Enroll a new user with a face image and a voice recording. Enrollment
must be authorized by an enrollment grant, obtained by verifying an
existing user first.

Example:
  biogate verify alice --face alice.jpg --voice alice.wav
  biogate enroll bob --face bob.jpg --voice bob.wav --grant <token>`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("face", "", "Path to the face image")
	enrollCmd.Flags().String("voice", "", "Path to the voice recording")
	enrollCmd.Flags().String("grant", "", "Enrollment grant token from a successful verification")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	username := args[0]
	cfg := config.Load()

	grantToken := mustGetString(cmd, "grant")
	if grantToken == "" {
		grantToken = os.Getenv("BIOGATE_GRANT")
	}
	if grantToken == "" {
		return fmt.Errorf("an enrollment grant is required (--grant flag or BIOGATE_GRANT)")
	}

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

	meta, err := svc.Enroll(context.Background(), grantToken, username, faceData, voiceData)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled user '%s'\n", meta["username"])
	fmt.Printf("Authorized by: %s\n", meta["created_by"])
	return nil
}
