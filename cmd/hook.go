package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gitkan/gitkan/internal/hooks"
	"github.com/gitkan/gitkan/internal/ident"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage webhook registrations",
}

var hookAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Register a webhook endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		path := filepath.Join(cfg.RepoRoot, hooks.DefaultRegistryPath)
		reg, err := hooks.LoadRegistry(path)
		if err != nil {
			return err
		}
		h := hooks.Hook{ID: ident.NewID(), URL: args[0]}
		reg.Upsert(h)
		if err := hooks.SaveRegistry(path, reg); err != nil {
			return err
		}
		fmt.Println(h.ID)
		return nil
	},
}

var hookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered webhooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		reg, err := hooks.LoadRegistry(filepath.Join(cfg.RepoRoot, hooks.DefaultRegistryPath))
		if err != nil {
			return err
		}
		for _, h := range reg.Hooks {
			fmt.Printf("%s\t%s\tcursor=%d\n", h.ID, h.URL, h.Cursor)
		}
		return nil
	},
}

var hookMarkCmd = &cobra.Command{
	Use:   "mark <hook-id> <op-id> <seq>",
	Short: "Record a delivery and advance the hook's cursor",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		seq, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad seq %q: %w", args[2], err)
		}

		path := filepath.Join(cfg.RepoRoot, hooks.DefaultRegistryPath)
		reg, err := hooks.LoadRegistry(path)
		if err != nil {
			return err
		}
		h := reg.Find(args[0])
		if h == nil {
			return fmt.Errorf("unknown hook %s", args[0])
		}
		if seq > h.Cursor {
			h.Cursor = seq
		}
		if err := hooks.SaveRegistry(path, reg); err != nil {
			return err
		}

		ledger, err := hooks.OpenLedger(filepath.Join(cfg.RepoRoot, ".kanban", "deliveries.jsonl"))
		if err != nil {
			return err
		}
		defer ledger.Close()
		return ledger.RecordDelivery(h.ID, args[1])
	},
}

func init() {
	hookCmd.AddCommand(hookAddCmd)
	hookCmd.AddCommand(hookListCmd)
	hookCmd.AddCommand(hookMarkCmd)
	rootCmd.AddCommand(hookCmd)
}
