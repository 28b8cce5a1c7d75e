package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitkan/gitkan/internal/gitx"
	"github.com/gitkan/gitkan/internal/oplog"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a kanban repo in the current directory",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	store, err := oplog.Init(cfg.RepoRoot, cfg.ActorID)
	if err != nil {
		return err
	}

	if cfg.Git {
		if adapter := gitx.New(cfg.RepoRoot); adapter != nil {
			if err := adapter.Init(cmd.Context()); err != nil {
				return err
			}
		}
	}

	fmt.Printf("initialized kanban repo at %s (workspace %s)\n",
		cfg.RepoRoot, store.Marker().DefaultWorkspaceID)
	return nil
}
