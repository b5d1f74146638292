package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-modelstore/repository"
)

func (c *CLI) newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <statement> [args...]",
		Short: "Run a statement in a transaction, retrying while the database is busy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := c.open(cmd)
			if err != nil {
				return err
			}

			var affected int64
			err = container.Repository().RunInTransaction(cmd.Context(), func(ctx context.Context, tx *repository.Tx) error {
				res, err := tx.DB().ExecContext(ctx, args[0], statementArgs(args[1:])...)
				if err != nil {
					return err
				}
				affected, err = res.RowsAffected()
				return err
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) affected\n", affected)
			return nil
		},
	}
}

func statementArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
