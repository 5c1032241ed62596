package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/store"
	"github.com/biogate/biogate/internal/store/provider"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List enrolled users",
	Long:  `List all enrolled users. Use --meta to include enrollment metadata.`,
	RunE:  runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)

	usersCmd.Flags().Bool("meta", false, "Show enrollment metadata for each user")
}

func runUsers(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	showMeta := mustGetBool(cmd, "meta")

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
		fmt.Println("No users enrolled.")
		return nil
	}

	if !showMeta {
		for _, username := range users {
			fmt.Println(username)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tROLE\tCREATED\tCREATED BY")
	fmt.Fprintln(w, "--------\t----\t-------\t----------")

	for _, username := range users {
		meta, err := st.Metadata(ctx, username)
		if err != nil {
			fmt.Fprintf(w, "%s\t?\t?\t? (%v)\n", username, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			username, meta[store.MetaRole], meta[store.MetaCreatedAt], meta[store.MetaCreatedBy])
	}

	w.Flush()

	fmt.Printf("\nTotal: %d user(s)\n", len(users))
	return nil
}
