package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/constants"
	"github.com/biogate/biogate/internal/store"
	"github.com/biogate/biogate/internal/store/provider"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scan the template store for corrupt templates",
	Long: `Read every stored template and report the ones that cannot be decoded
or whose embedding dimensions do not match the configured model
dimensions. The exit code is non-zero when any template is damaged.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkTemplate reads one template and returns a problem description,
// or an empty string when the template is healthy.
func checkTemplate(ctx context.Context, st store.TemplateStore, cfg *config.Config, username string) string {
	tpl, err := st.Read(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrCorruptTemplate) {
			return fmt.Sprintf("corrupt: %v", err)
		}
		return fmt.Sprintf("unreadable: %v", err)
	}

	if cfg.Face.Dim > 0 && len(tpl.FaceVec) != cfg.Face.Dim {
		return fmt.Sprintf("face embedding has %d dimensions, expected %d", len(tpl.FaceVec), cfg.Face.Dim)
	}
	if cfg.Voice.Dim > 0 && len(tpl.VoiceVec) != cfg.Voice.Dim {
		return fmt.Sprintf("voice embedding has %d dimensions, expected %d", len(tpl.VoiceVec), cfg.Voice.Dim)
	}
	return ""
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := provider.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening template store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	users, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users enrolled, nothing to check.")
		return nil
	}

	fmt.Printf("Checking %d template(s)...\n", len(users))

	bar := progressbar.NewOptions(len(users),
		progressbar.OptionSetDescription("Checking"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var (
		problems   = make(map[string]string)
		problemsMu sync.Mutex
		wg         sync.WaitGroup
		sem        = make(chan struct{}, constants.CheckWorkers)
	)

	for _, username := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if problem := checkTemplate(ctx, st, cfg, u); problem != "" {
				problemsMu.Lock()
				problems[u] = problem
				problemsMu.Unlock()
			}
			bar.Add(1)
		}(username)
	}
	wg.Wait()
	fmt.Println()

	if len(problems) == 0 {
		fmt.Printf("All %d template(s) are healthy.\n", len(users))
		return nil
	}

	damaged := make([]string, 0, len(problems))
	for username := range problems {
		damaged = append(damaged, username)
	}
	sort.Strings(damaged)

	fmt.Printf("\n%d of %d template(s) have problems:\n", len(damaged), len(users))
	for _, username := range damaged {
		fmt.Printf("  %s: %s\n", username, problems[username])
	}

	return fmt.Errorf("%d damaged template(s) found", len(damaged))
}
