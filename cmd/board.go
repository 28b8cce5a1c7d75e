package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
}

var boardCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		o, err := eng.CreateBoard(cfg.ActorID, args[0])
		if err != nil {
			return err
		}
		fmt.Println(boardIDOf(o))
		return nil
	},
}

var boardRenameCmd = &cobra.Command{
	Use:   "rename <board-id> <title>",
	Short: "Rename a board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.RenameBoard(cfg.ActorID, args[0], args[1])
		return err
	},
}

func init() {
	boardCmd.AddCommand(boardCreateCmd)
	boardCmd.AddCommand(boardRenameCmd)
	rootCmd.AddCommand(boardCmd)
}
