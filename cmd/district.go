package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-risk/internal/config"
	"github.com/sells-group/parcel-risk/internal/model"
	"github.com/sells-group/parcel-risk/internal/parcel"
)

var districtCmd = &cobra.Command{
	Use:   "district",
	Short: "Legal district reference table tools",
}

var districtLookupCmd = &cobra.Command{
	Use:   "lookup <address>",
	Short: "Resolve an address to its legal district code and lot numbers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ModeLookup); err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return lookupAddress(os.Stdout, initCodec(), strings.Join(args, " "), asJSON)
	},
}

var districtDecodeCmd = &cobra.Command{
	Use:   "decode <pnu>",
	Short: "Split a 19-digit parcel identifier into district code and lot numbers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return decodeParcel(os.Stdout, args[0], asJSON)
	},
}

type addressResolver interface {
	Resolve(address string) (model.ResolvedAddress, error)
}

func lookupAddress(out io.Writer, res addressResolver, address string, asJSON bool) error {
	resolved, err := res.Resolve(address)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, resolved)
	}
	_, _ = fmt.Fprintf(out, "Legal code:\t%s\n", resolved.LegalCode)
	_, _ = fmt.Fprintf(out, "District:\t%s\n", resolved.CanonicalName)
	_, _ = fmt.Fprintf(out, "Lot:\t%s-%s\n", resolved.LotMain, resolved.LotSub)
	return nil
}

func decodeParcel(out io.Writer, pnu string, asJSON bool) error {
	p, err := parcel.Decode(strings.TrimSpace(pnu))
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, p)
	}
	_, _ = fmt.Fprintf(out, "Legal code:\t%s\n", p.DistrictCode)
	_, _ = fmt.Fprintf(out, "Lot:\t%s-%s\n", p.LotMain, p.LotSub)
	return nil
}

func init() {
	districtLookupCmd.Flags().Bool("json", false, "print JSON")
	districtDecodeCmd.Flags().Bool("json", false, "print JSON")
	districtCmd.AddCommand(districtLookupCmd)
	districtCmd.AddCommand(districtDecodeCmd)
	rootCmd.AddCommand(districtCmd)
}
