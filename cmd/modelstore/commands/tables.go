package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-modelstore/engine"
)

type tableInfo struct {
	Name string `bun:"name"`
	Rows int64  `bun:"-"`
}

func (c *CLI) newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables and their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := c.open(cmd)
			if err != nil {
				return err
			}

			var tables []tableInfo
			err = container.Conn().Exclusive(cmd.Context(), func(ctx context.Context, db bun.IDB) error {
				found, err := engine.Query[tableInfo](ctx, db,
					"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
				if err != nil {
					return err
				}
				tables = found
				for i := range tables {
					if err := db.NewSelect().TableExpr("?", bun.Ident(tables[i].Name)).ColumnExpr("COUNT(*)").Scan(ctx, &tables[i].Rows); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TABLE\tROWS")
			for _, t := range tables {
				_, _ = fmt.Fprintf(w, "%s\t%d\n", t.Name, t.Rows)
			}
			return w.Flush()
		},
	}
}
