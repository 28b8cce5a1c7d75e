package cmd

import (
	"github.com/spf13/cobra"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage board memberships",
}

var memberAddCmd = &cobra.Command{
	Use:   "add <board-id> <actor-id> <role>",
	Short: "Grant an actor a role on a board",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.AddMember(cfg.ActorID, args[0], args[1], args[2])
		return err
	},
}

var memberRoleCmd = &cobra.Command{
	Use:   "role <board-id> <actor-id> <role>",
	Short: "Change an existing membership's role",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.ChangeMemberRole(cfg.ActorID, args[0], args[1], args[2])
		return err
	},
}

func init() {
	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberRoleCmd)
	rootCmd.AddCommand(memberCmd)
}
