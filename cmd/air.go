package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airwater-cli/internal/analysis"
)

var (
	airFile      string
	airCountry   string
	airCity      string
	airYear      int
	airPollutant string
	airAllCities bool
	airAllYears  bool
	airOut       outputFlags
)

var airCmd = &cobra.Command{
	Use:   "air",
	Short: "Forecast and flag anomalies in an air-quality series",
	Long: `Filter the air-quality table by country, city, year and pollutant, resample the
selected pollutant to a daily series, and report a 90-day forecast plus anomaly labels.
Unset country, city and year default to the first available value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := airOut.validate(); err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		svc := newService(c, airFile, "")
		sel, err := svc.CompleteAir(analysis.AirSelection{
			Country:   airCountry,
			City:      airCity,
			Year:      airYear,
			Pollutant: airPollutant,
		}, airAllCities, airAllYears)
		if err != nil {
			return err
		}
		res, err := svc.Air(sel)
		if err != nil {
			return err
		}
		data, err := airOut.render(res, func() string { return res.Markdown(airOut.rows) })
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s %s/%s %d", sel.Pollutant, orAll(sel.Country), orAll(sel.City), sel.Year)
		return airOut.emit(cmd, "air", title, data)
	},
}

func init() {
	rootCmd.AddCommand(airCmd)
	airCmd.Flags().StringVar(&airFile, "file", "", "air-quality CSV (overrides air_files)")
	airCmd.Flags().StringVar(&airCountry, "country", "", "country to select")
	airCmd.Flags().StringVar(&airCity, "city", "", "city to select")
	airCmd.Flags().IntVar(&airYear, "year", 0, "year to select")
	airCmd.Flags().StringVarP(&airPollutant, "pollutant", "p", "PM2.5", "pollutant: PM2.5|PM10|NO2|SO2|CO|O3")
	airCmd.Flags().BoolVar(&airAllCities, "all-cities", false, "do not constrain the city")
	airCmd.Flags().BoolVar(&airAllYears, "all-years", false, "do not constrain the year")
	airOut.register(airCmd)
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
