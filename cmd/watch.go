package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gitkan/gitkan/internal/hooks"
	"github.com/gitkan/gitkan/internal/op"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream newly appended ops until interrupted",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Int64("since", 0, "start cursor (seq); 0 streams the whole log first")
	watchCmd.Flags().String("ledger", "", "also record observed ops to this JSONL ledger")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	since, _ := cmd.Flags().GetInt64("since")

	// A nil ledger records nothing; only open one when a path was given.
	var ledger *hooks.Ledger
	if path, _ := cmd.Flags().GetString("ledger"); path != "" {
		ledger, err = hooks.OpenLedger(path)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	feed := hooks.NewFeed(eng.Store())
	sub, err := feed.SubscribeOps(since, func(ops []op.Op) {
		for _, o := range ops {
			fmt.Printf("%d\t%s\t%s\t%s\n", o.Seq, o.Type, o.ID, o.ActorID)
			if err := ledger.Record(hooks.Entry{Kind: hooks.KindOpAppended, OpID: o.ID, Data: o.Seq}); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	return nil
}
