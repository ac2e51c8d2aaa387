package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airwater-cli/internal/analysis"
)

var (
	describeSampleRows int
	describeTopValues  int
	describeOut        outputFlags
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarize the columns of a CSV/TSV dataset",
	Long: `Scan a delimited dataset and report each column's inferred type, missing cells,
numeric statistics with robust outlier counts, and the most frequent categorical values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := describeOut.validate(); err != nil {
			return err
		}
		opt := analysis.DefaultDescribeOptions()
		if describeSampleRows > 0 {
			opt.SampleRows = describeSampleRows
		}
		if describeTopValues > 0 {
			opt.TopValues = describeTopValues
		}
		rep, err := analysis.Describe(args[0], opt)
		if err != nil {
			return err
		}
		data, err := describeOut.render(rep, rep.Markdown)
		if err != nil {
			return err
		}
		return describeOut.emit(cmd, "describe", rep.Name, data)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().IntVar(&describeSampleRows, "sample-rows", 0, "head rows included in the report (default 5)")
	describeCmd.Flags().IntVar(&describeTopValues, "top-values", 0, "frequent values listed per categorical column (default 5)")
	describeOut.register(describeCmd)
}
