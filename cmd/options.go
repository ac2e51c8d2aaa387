package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	optionsCountry string
	optionsFile    string
)

var optionsCmd = &cobra.Command{
	Use:       "options <air|water>",
	Short:     "List the countries, cities, years and regions a selection can use",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"air", "water"},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch args[0] {
		case "air":
			opts, err := newService(c, optionsFile, "").AirOptions(optionsCountry)
			if err != nil {
				return err
			}
			years := make([]string, len(opts.Years))
			for i, y := range opts.Years {
				years[i] = strconv.Itoa(y)
			}
			printList(out, "Countries", opts.Countries)
			fmt.Fprintf(out, "Country: %s\n", opts.Country)
			printList(out, "Cities", opts.Cities)
			printList(out, "Years", years)
			printList(out, "Pollutants", opts.Pollutants)
		case "water":
			opts, err := newService(c, "", optionsFile).WaterOptions(optionsCountry)
			if err != nil {
				return err
			}
			printList(out, "Countries", opts.Countries)
			fmt.Fprintf(out, "Country: %s\n", opts.Country)
			printList(out, "Regions", opts.Regions)
			fmt.Fprintln(out, "Top regions:")
			for _, r := range opts.TopRegions {
				fmt.Fprintf(out, "  - %s (%d)\n", r.Value, r.Count)
			}
		default:
			return fmt.Errorf("unknown dataset: %s (use air or water)", args[0])
		}
		return nil
	},
}

func printList(w io.Writer, label string, values []string) {
	fmt.Fprintf(w, "%s (%d): %s\n", label, len(values), strings.Join(values, ", "))
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.Flags().StringVar(&optionsCountry, "country", "", "country whose cities, years or regions to list")
	optionsCmd.Flags().StringVar(&optionsFile, "file", "", "dataset CSV (overrides the configured paths)")
}
