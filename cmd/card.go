package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitkan/gitkan/internal/command"
	"github.com/gitkan/gitkan/internal/op"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage cards",
}

var cardCreateCmd = &cobra.Command{
	Use:   "create <list-id> <title>",
	Short: "Create a card on a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		draft := command.CardDraft{Title: args[1]}
		draft.Description, _ = cmd.Flags().GetString("desc")
		draft.Labels, _ = cmd.Flags().GetStringSlice("label")
		draft.Position, _ = cmd.Flags().GetInt64("pos")
		if due, _ := cmd.Flags().GetString("due"); due != "" {
			draft.DueDate = &due
		}
		o, err := eng.CreateCard(cfg.ActorID, args[0], draft)
		if err != nil {
			return err
		}
		fmt.Println(cardIDOf(o))
		return nil
	},
}

var cardMoveCmd = &cobra.Command{
	Use:   "move <card-id> <list-id>",
	Short: "Move a card to a list on the same board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		pos, _ := cmd.Flags().GetInt64("pos")
		_, err = eng.MoveCard(cfg.ActorID, args[0], args[1], pos)
		return err
	},
}

var cardUpdateCmd = &cobra.Command{
	Use:   "update <card-id>",
	Short: "Update card fields; unset flags leave fields unchanged",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		var patch command.CardPatch
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			patch.Title = &v
		}
		if cmd.Flags().Changed("desc") {
			v, _ := cmd.Flags().GetString("desc")
			patch.Description = &v
		}
		if cmd.Flags().Changed("label") {
			v, _ := cmd.Flags().GetStringSlice("label")
			patch.Labels = &v
		}
		if clear, _ := cmd.Flags().GetBool("clear-due"); clear {
			patch.DueDate = op.ClearDueDate()
		} else if cmd.Flags().Changed("due") {
			v, _ := cmd.Flags().GetString("due")
			patch.DueDate = op.SetDueDate(v)
		}
		_, err = eng.UpdateCard(cfg.ActorID, args[0], patch)
		return err
	},
}

var cardArchiveCmd = &cobra.Command{
	Use:   "archive <card-id>",
	Short: "Archive a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.ArchiveCard(cfg.ActorID, args[0])
		return err
	},
}

var cardCommentCmd = &cobra.Command{
	Use:   "comment <card-id> <body>",
	Short: "Add a comment to a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		_, err = eng.AddComment(cfg.ActorID, args[0], args[1])
		return err
	},
}

func init() {
	cardCreateCmd.Flags().String("desc", "", "card description")
	cardCreateCmd.Flags().StringSlice("label", nil, "card label (repeatable)")
	cardCreateCmd.Flags().Int64("pos", 0, "position (0 = end)")
	cardCreateCmd.Flags().String("due", "", "due date (ISO-8601)")

	cardMoveCmd.Flags().Int64("pos", 0, "position (0 = end)")

	cardUpdateCmd.Flags().String("title", "", "new title")
	cardUpdateCmd.Flags().String("desc", "", "new description")
	cardUpdateCmd.Flags().StringSlice("label", nil, "replacement labels")
	cardUpdateCmd.Flags().String("due", "", "new due date (ISO-8601)")
	cardUpdateCmd.Flags().Bool("clear-due", false, "clear the due date")

	cardCmd.AddCommand(cardCreateCmd)
	cardCmd.AddCommand(cardMoveCmd)
	cardCmd.AddCommand(cardUpdateCmd)
	cardCmd.AddCommand(cardArchiveCmd)
	cardCmd.AddCommand(cardCommentCmd)
	rootCmd.AddCommand(cardCmd)
}
