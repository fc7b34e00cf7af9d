package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-risk/internal/analysis"
	"github.com/sells-group/parcel-risk/internal/config"
	"github.com/sells-group/parcel-risk/internal/model"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Score a deal price against recent comparable transactions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := priceRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		env, err := initAnalysis(ctx, config.ModeAnalyze)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.Price(ctx, req)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(os.Stdout, result)
		}
		formatPrice(os.Stdout, result)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run risk and price analyses for one address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := priceRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		env, err := initAnalysis(ctx, config.ModeAnalyze)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.Report(ctx, req)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(os.Stdout, result)
		}
		formatReport(os.Stdout, result)
		return nil
	},
}

func priceRequestFromFlags(cmd *cobra.Command) (analysis.PriceRequest, error) {
	address, _ := cmd.Flags().GetString("address")
	price, _ := cmd.Flags().GetInt64("price")
	area, _ := cmd.Flags().GetFloat64("area")
	dealRaw, _ := cmd.Flags().GetString("deal-type")
	propRaw, _ := cmd.Flags().GetString("property-type")

	if address == "" {
		return analysis.PriceRequest{}, eris.New("--address is required")
	}
	deal, err := model.ParseDealType(dealRaw)
	if err != nil {
		return analysis.PriceRequest{}, err
	}
	property, err := model.ParsePropertyType(propRaw)
	if err != nil {
		return analysis.PriceRequest{}, err
	}
	return analysis.PriceRequest{
		Address:      address,
		DealType:     deal,
		PropertyType: property,
		Price:        price,
		AreaSqm:      area,
	}, nil
}

func addPriceFlags(cmd *cobra.Command) {
	cmd.Flags().String("address", "", "lot-number address")
	cmd.Flags().Int64("price", 0, "deal price in won (deposit for lease/monthly)")
	cmd.Flags().Float64("area", 0, "exclusive-use area in m²")
	cmd.Flags().String("deal-type", string(model.DealSale), "SALE, LEASE or MONTHLY")
	cmd.Flags().String("property-type", string(model.PropertyApartment), "APARTMENT, ROWHOUSE, DETACHED or OFFICETEL")
	cmd.Flags().Bool("json", false, "print JSON")
}

func init() {
	addPriceFlags(priceCmd)
	addPriceFlags(reportCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(reportCmd)
}
