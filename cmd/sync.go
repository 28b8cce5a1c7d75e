package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitkan/gitkan/internal/gitx"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the repo with its git remote",
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show branch, ahead/behind, and dirty state",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := requireGit(cmd)
		if err != nil {
			return err
		}
		st, err := adapter.Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("branch: %s\nahead: %d\nbehind: %d\ndirty: %v\n", st.Branch, st.Ahead, st.Behind, st.Dirty)
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull ops from the remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := requireGit(cmd)
		if err != nil {
			return err
		}
		cfg := loadConfig(cmd)
		return adapter.Pull(cmd.Context(), cfg.Remote, cfg.Branch)
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push ops to the remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := requireGit(cmd)
		if err != nil {
			return err
		}
		cfg := loadConfig(cmd)
		return adapter.Push(cmd.Context(), cfg.Remote, cfg.Branch)
	},
}

func init() {
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncPushCmd)
	rootCmd.AddCommand(syncCmd)
}

// requireGit returns the git adapter or an error: sync commands cannot run
// in no-git mode.
func requireGit(cmd *cobra.Command) (*gitx.Adapter, error) {
	cfg := loadConfig(cmd)
	if !cfg.Git {
		return nil, fmt.Errorf("sync requires git; remove --no-git")
	}
	adapter := gitx.Detect(cmd.Context(), cfg.RepoRoot)
	if adapter == nil {
		return nil, fmt.Errorf("%s is not inside a git repository", cfg.RepoRoot)
	}
	return adapter, nil
}
