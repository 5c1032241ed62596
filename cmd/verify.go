package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/logging"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <username>",
	Short: "Verify a user against their stored templates",
	Long: `Verify a live face image and voice recording against the stored
templates of a user. Access is granted only when both factors match.
On success the command prints an enrollment grant that authorizes
enrolling further users.

The exit code is non-zero when access is denied.

Example:
  biogate verify alice --face probe.jpg --voice probe.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("face", "", "Path to the face image")
	verifyCmd.Flags().String("voice", "", "Path to the voice recording")
	verifyCmd.Flags().Bool("show-grant", true, "Print the enrollment grant on success")
}

// passLabel formats a match decision for terminal output.
func passLabel(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func runVerify(cmd *cobra.Command, args []string) error {
	username := args[0]
	cfg := config.Load()
	showGrant := mustGetBool(cmd, "show-grant")

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

	res, err := svc.Verify(context.Background(), username, faceData, voiceData)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Printf("User:  %s\n", res.Username)
	fmt.Printf("Face:  %s (score %.4f, threshold %.2f)\n", passLabel(res.FaceOK), res.FaceScore, cfg.Face.Threshold)
	fmt.Printf("Voice: %s (score %.4f, threshold %.2f)\n", passLabel(res.VoiceOK), res.VoiceScore, cfg.Voice.Threshold)

	if !res.Granted {
		return errors.New("access denied")
	}

	fmt.Println("\nAccess granted")
	if showGrant {
		fmt.Printf("Enrollment grant (valid %s):\n%s\n", cfg.Grant.TTL, res.Grant)
	}
	return nil
}
