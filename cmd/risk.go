package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-risk/internal/config"
	"github.com/sells-group/parcel-risk/internal/model"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Score the structural and legal risk of a building",
	Long:  "Looks up the building register entry for an address (or a 19-digit PNU) and scores it. The result is recorded in history.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		address, _ := cmd.Flags().GetString("address")
		pnu, _ := cmd.Flags().GetString("pnu")
		asJSON, _ := cmd.Flags().GetBool("json")

		if (address == "") == (pnu == "") {
			return eris.New("exactly one of --address or --pnu is required")
		}

		ctx := cmd.Context()
		env, err := initAnalysis(ctx, config.ModeAnalyze)
		if err != nil {
			return err
		}
		defer env.Close()

		var result model.RiskScoreResult
		if pnu != "" {
			result, err = env.Service.RiskByParcel(ctx, pnu)
		} else {
			result, err = env.Service.Risk(ctx, address)
		}
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(os.Stdout, result)
		}
		formatRisk(os.Stdout, result)
		return nil
	},
}

func init() {
	riskCmd.Flags().String("address", "", "lot-number address, e.g. \"서울특별시 강남구 역삼동 777-12\"")
	riskCmd.Flags().String("pnu", "", "19-digit parcel identifier")
	riskCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(riskCmd)
}
