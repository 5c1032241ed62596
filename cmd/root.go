package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "biogate",
	Short: "Two-factor biometric access gate",
	Long: `Biogate is a two-factor biometric authentication gate. Users enroll
with a face image and a voice recording; verification grants access only
when both factors match the stored templates. Embedding extraction is
delegated to external face and speaker model services.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
