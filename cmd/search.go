package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitkan/gitkan/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search card text across all boards",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, cfg, err := openEngine(cmd)
	if err != nil {
		return err
	}
	res, err := rebuildCached(cmd.Context(), eng, cfg)
	if err != nil {
		return err
	}
	for _, m := range search.Cards(res.State, strings.Join(args, " ")) {
		fmt.Printf("%s\t%s\n", m.CardID, m.Title)
	}
	return nil
}
