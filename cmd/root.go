// Package cmd is the thin CLI shell over the gitkan engine. Commands parse
// flags, call the command layer or replay engine, and print results; all
// semantics live in internal/.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gitkan/gitkan/internal/command"
	"github.com/gitkan/gitkan/internal/config"
	"github.com/gitkan/gitkan/internal/gitx"
	"github.com/gitkan/gitkan/internal/ident"
	"github.com/gitkan/gitkan/internal/oplog"
	"github.com/gitkan/gitkan/internal/snapshot"
	"github.com/gitkan/gitkan/internal/state"
)

var rootCmd = &cobra.Command{
	Use:   "gitkan",
	Short: "Git-backed event-sourced kanban store",
	Long: "Gitkan keeps a kanban board as an append-only log of ops in a git repo.\n" +
		"State is rebuilt deterministically from the log; replicas converge by\n" +
		"exchanging commits, with same-seq conflicts surfaced for review.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .gitkan.yaml)")
	rootCmd.PersistentFlags().StringP("repo", "r", "", "repository root (default current directory)")
	rootCmd.PersistentFlags().String("actor", "", "acting actor id")
	rootCmd.PersistentFlags().Bool("no-git", false, "disable the git durability adapter")
	rootCmd.PersistentFlags().Bool("snapshot", false, "cache rebuilt state in a local SQLite file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("repo_root", rootCmd.PersistentFlags().Lookup("repo"))
	_ = viper.BindPFlag("actor_id", rootCmd.PersistentFlags().Lookup("actor"))
	_ = viper.BindPFlag("snapshot", rootCmd.PersistentFlags().Lookup("snapshot"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".gitkan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("GITKAN")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// loadConfig resolves the effective config, minting an actor id when none is
// configured and honoring --no-git.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if cfg.RepoRoot == "" {
		cfg.RepoRoot = "."
	}
	if cfg.ActorID == "" {
		cfg.ActorID = ident.NewActorID()
	}
	if noGit, _ := cmd.Flags().GetBool("no-git"); noGit {
		cfg.Git = false
	}
	return cfg
}

// openEngine opens the repo's op log (validating the format marker), wires
// the optional git adapter, and returns the command engine.
func openEngine(cmd *cobra.Command) (*command.Engine, config.Config, error) {
	cfg := loadConfig(cmd)
	store, err := oplog.Open(cfg.RepoRoot)
	if err != nil {
		return nil, cfg, err
	}
	if cfg.Git {
		if adapter := gitx.Detect(cmd.Context(), cfg.RepoRoot); adapter != nil {
			store.SetCommitter(adapter)
		}
	}
	return command.New(store), cfg, nil
}

// rebuildCached replays the log, going through the SQLite snapshot cache
// when enabled. Cache failures fall back to a plain rebuild; the cache is a
// shortcut, never a dependency.
func rebuildCached(ctx context.Context, eng *command.Engine, cfg config.Config) (state.Result, error) {
	if !cfg.Snapshot {
		return eng.Rebuild()
	}
	ops, err := eng.Store().LoadAll()
	if err != nil {
		return state.Result{}, err
	}
	var maxSeq int64
	if len(ops) > 0 {
		maxSeq = ops[len(ops)-1].Seq
	}
	workspaceID := eng.Store().Marker().DefaultWorkspaceID

	cache, err := snapshot.Open(ctx, filepath.Join(cfg.RepoRoot, ".kanban", "snapshot.db"))
	if err != nil {
		return state.Rebuild(ops, workspaceID), nil
	}
	defer cache.Close()

	if res, ok, err := cache.Load(ctx, maxSeq, len(ops)); err == nil && ok {
		return res, nil
	}
	res := state.Rebuild(ops, workspaceID)
	if err := cache.Save(ctx, res, len(ops)); err != nil && cfg.Verbose {
		fmt.Fprintf(os.Stderr, "snapshot save failed: %v\n", err)
	}
	return res, nil
}
