package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage lists",
}

var listCreateCmd = &cobra.Command{
	Use:   "create <board-id> <title>",
	Short: "Create a list on a board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		pos, _ := cmd.Flags().GetInt64("pos")
		o, err := eng.CreateList(cfg.ActorID, args[0], args[1], pos)
		if err != nil {
			return err
		}
		fmt.Println(listIDOf(o))
		return nil
	},
}

var listRenameCmd = &cobra.Command{
	Use:   "rename <list-id> <title>",
	Short: "Rename a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.RenameList(cfg.ActorID, args[0], args[1])
		return err
	},
}

var listMoveCmd = &cobra.Command{
	Use:   "move <list-id>",
	Short: "Move a list to a new position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		pos, _ := cmd.Flags().GetInt64("pos")
		_, err = eng.MoveList(cfg.ActorID, args[0], pos)
		return err
	},
}

func init() {
	listCreateCmd.Flags().Int64("pos", 0, "position (0 = end)")
	listMoveCmd.Flags().Int64("pos", 0, "position (0 = end)")
	listCmd.AddCommand(listCreateCmd)
	listCmd.AddCommand(listRenameCmd)
	listCmd.AddCommand(listMoveCmd)
	rootCmd.AddCommand(listCmd)
}
