package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	scoreDialog  string
	scoreSummary string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a saved interview transcript again",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ev := a.reports.Generate(cmd.Context(), scoreDialog, scoreSummary)
		if ev.Empty() {
			return errors.New("no report produced; see the log for the cause")
		}
		out, err := json.MarshalIndent(ev, "", "    ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreDialog, "dialog", "", "transcript file (dialog/<topic>.json)")
	scoreCmd.Flags().StringVar(&scoreSummary, "summary", "", "report file to write (summary/<topic>.json)")
	_ = scoreCmd.MarkFlagRequired("dialog")
	_ = scoreCmd.MarkFlagRequired("summary")
}
