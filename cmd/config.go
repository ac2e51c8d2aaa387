package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/airwater-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set airwater configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "air_files: %s\n", strings.Join(cfg.AirFiles, ","))
		fmt.Fprintf(out, "water_files: %s\n", strings.Join(cfg.WaterFiles, ","))
		fmt.Fprintf(out, "forecast_horizon: %d\n", cfg.ForecastHorizon)
		fmt.Fprintf(out, "arima: (%d,%d,%d)\n", cfg.ARIMAP, cfg.ARIMAD, cfg.ARIMAQ)
		fmt.Fprintf(out, "anomaly_contamination: %.3f\n", cfg.AnomalyContamination)
		fmt.Fprintf(out, "anomaly_seed: %d\n", cfg.AnomalySeed)
		fmt.Fprintf(out, "anomaly_trees: %d\n", cfg.AnomalyTrees)
		fmt.Fprintf(out, "anomaly_sample_size: %d\n", cfg.AnomalySampleSize)
		fmt.Fprintf(out, "top_regions: %d\n", cfg.TopRegions)
		fmt.Fprintf(out, "top_cities: %d\n", cfg.TopCities)
		fmt.Fprintf(out, "http_addr: %s\n", cfg.HTTPAddr)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		fmt.Fprintf(out, "reports_dir: %s\n", cfg.ReportsDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// edit what is on disk, not the flag- and env-adjusted cfg
		base, err := cfgpkg.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		next := *base
		switch key {
		case "air_files":
			next.AirFiles = splitCSV(val)
		case "water_files":
			next.WaterFiles = splitCSV(val)
		case "forecast_horizon":
			next.ForecastHorizon, err = parseInt(key, val)
		case "arima_p":
			next.ARIMAP, err = parseInt(key, val)
		case "arima_d":
			next.ARIMAD, err = parseInt(key, val)
		case "arima_q":
			next.ARIMAQ, err = parseInt(key, val)
		case "anomaly_contamination":
			next.AnomalyContamination, err = strconv.ParseFloat(val, 64)
			if err != nil {
				err = fmt.Errorf("invalid float for %s: %w", key, err)
			}
		case "anomaly_seed":
			next.AnomalySeed, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				err = fmt.Errorf("invalid int for %s: %w", key, err)
			}
		case "anomaly_trees":
			next.AnomalyTrees, err = parseInt(key, val)
		case "anomaly_sample_size":
			next.AnomalySampleSize, err = parseInt(key, val)
		case "top_regions":
			next.TopRegions, err = parseInt(key, val)
		case "top_cities":
			next.TopCities, err = parseInt(key, val)
		case "http_addr":
			next.HTTPAddr = val
		case "log_level":
			next.LogLevel = val
		case "log_format":
			switch strings.ToLower(val) {
			case "text", "json":
				next.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "reports_dir":
			next.ReportsDir = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func parseInt(key, val string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %w", key, err)
	}
	return i, nil
}

func splitCSV(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
