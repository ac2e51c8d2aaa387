package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airwater-cli/internal/analysis"
)

var (
	waterFile       string
	waterCountry    string
	waterRegions    []string
	waterTopRegions int
	waterTopCities  int
	waterOut        outputFlags
)

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Summarize water quality by region and city",
	Long: `Filter the water-quality table by country and regions, then report region means,
the top cities and, when the table carries dates, a forecast and anomaly labels for the
daily quality index. Without --region the country's most frequent regions are selected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := waterOut.validate(); err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("top-regions") {
			c.TopRegions = waterTopRegions
		}
		if cmd.Flags().Changed("top-cities") {
			c.TopCities = waterTopCities
		}
		sel := analysis.WaterSelection{Country: waterCountry}
		if cmd.Flags().Changed("region") {
			sel.Regions = []string{}
			for _, r := range waterRegions {
				if r = strings.TrimSpace(r); r != "" {
					sel.Regions = append(sel.Regions, r)
				}
			}
		}
		res, err := newService(c, "", waterFile).Water(sel)
		if err != nil {
			return err
		}
		data, err := waterOut.render(res, func() string { return res.Markdown(waterOut.rows) })
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s (%d regions)", orAll(res.Selection.Country), len(res.Selection.Regions))
		return waterOut.emit(cmd, "water", title, data)
	},
}

func init() {
	rootCmd.AddCommand(waterCmd)
	waterCmd.Flags().StringVar(&waterFile, "file", "", "water-quality CSV (overrides water_files)")
	waterCmd.Flags().StringVar(&waterCountry, "country", "", "country to select")
	waterCmd.Flags().StringSliceVarP(&waterRegions, "region", "r", nil, "region to select (repeatable or comma-separated)")
	waterCmd.Flags().IntVar(&waterTopRegions, "top-regions", 10, "regions preselected when --region is not given")
	waterCmd.Flags().IntVar(&waterTopCities, "top-cities", 15, "cities shown in the city breakdown")
	waterOut.register(waterCmd)
}
