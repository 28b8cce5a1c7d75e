package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Manage card checklists",
}

var checkAddCmd = &cobra.Command{
	Use:   "add <card-id> <text>",
	Short: "Add a checklist item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		pos, _ := cmd.Flags().GetInt64("pos")
		o, err := eng.AddChecklistItem(cfg.ActorID, args[0], args[1], pos)
		if err != nil {
			return err
		}
		fmt.Println(checklistItemIDOf(o))
		return nil
	},
}

var checkToggleCmd = &cobra.Command{
	Use:   "toggle <card-id> <item-id>",
	Short: "Set a checklist item's done flag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		done, _ := cmd.Flags().GetBool("done")
		_, err = eng.ToggleChecklistItem(cfg.ActorID, args[0], args[1], done)
		return err
	},
}

var checkRenameCmd = &cobra.Command{
	Use:   "rename <card-id> <item-id> <text>",
	Short: "Rename a checklist item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.RenameChecklistItem(cfg.ActorID, args[0], args[1], args[2])
		return err
	},
}

var checkRemoveCmd = &cobra.Command{
	Use:   "remove <card-id> <item-id>",
	Short: "Remove a checklist item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.RemoveChecklistItem(cfg.ActorID, args[0], args[1])
		return err
	},
}

func init() {
	checkAddCmd.Flags().Int64("pos", 0, "position (0 = end)")
	checkToggleCmd.Flags().Bool("done", true, "target done state")
	checkCmd.AddCommand(checkAddCmd)
	checkCmd.AddCommand(checkToggleCmd)
	checkCmd.AddCommand(checkRenameCmd)
	checkCmd.AddCommand(checkRemoveCmd)
	rootCmd.AddCommand(checkCmd)
}
