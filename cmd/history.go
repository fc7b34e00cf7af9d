package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-risk/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded analyses",
}

var historyRiskCmd = &cobra.Command{
	Use:   "risk",
	Short: "List risk analyses, most recent first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rows, err := st.ListRisk(ctx, historyFilter(cmd))
		if err != nil {
			return eris.Wrap(err, "history risk")
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, rows)
		}
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No risk history found.")
			return nil
		}
		formatRiskHistory(os.Stdout, rows)
		return nil
	},
}

var historyPriceCmd = &cobra.Command{
	Use:   "price",
	Short: "List price analyses, most recent first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rows, err := st.ListPrice(ctx, historyFilter(cmd))
		if err != nil {
			return eris.Wrap(err, "history price")
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, rows)
		}
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No price history found.")
			return nil
		}
		formatPriceHistory(os.Stdout, rows)
		return nil
	},
}

func historyFilter(cmd *cobra.Command) store.ListFilter {
	address, _ := cmd.Flags().GetString("address")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return store.ListFilter{Address: address, Limit: limit, Offset: offset}
}

func init() {
	for _, c := range []*cobra.Command{historyRiskCmd, historyPriceCmd} {
		c.Flags().String("address", "", "only rows for this address")
		c.Flags().Int("limit", 20, "maximum rows")
		c.Flags().Int("offset", 0, "rows to skip")
		c.Flags().Bool("json", false, "print JSON")
		historyCmd.AddCommand(c)
	}
	rootCmd.AddCommand(historyCmd)
}
