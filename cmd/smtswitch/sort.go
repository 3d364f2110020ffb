package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vhavlena/smtswitch/pkg/smt"
	"github.com/vhavlena/smtswitch/pkg/smt/factory"
)

func newSortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort OP SORT...",
		Short: "Print the sort an operator yields for the given argument sorts",
		Example: `  smtswitch sort bvadd "(_ BitVec 4)" "(_ BitVec 4)"
  smtswitch sort "(_ extract 7 4)" "(_ BitVec 8)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := smt.ParseOp(args[0])
			if err != nil {
				return err
			}
			sorts := make([]*smt.Sort, 0, len(args)-1)
			for _, text := range args[1:] {
				srt, err := smt.ParseSort(text)
				if err != nil {
					return err
				}
				sorts = append(sorts, srt)
			}
			result, err := smt.ComputeSort(op, sorts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered solver backends",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range factory.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
