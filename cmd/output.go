package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/airwater-cli/internal/archive"
	"github.com/KaramelBytes/airwater-cli/internal/utils"
)

// outputFlags are shared by the report-producing commands.
type outputFlags struct {
	format string
	output string
	save   bool
	rows   int
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "markdown", "output format: markdown|json|yaml")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&o.save, "save", false, "archive the report under reports_dir")
	cmd.Flags().IntVar(&o.rows, "rows", 0, "rows shown in Markdown previews (default 20)")
}

func (o *outputFlags) validate() error {
	switch strings.ToLower(o.format) {
	case "markdown", "md", "json", "yaml", "yml":
		return nil
	default:
		return fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", o.format)
	}
}

// render encodes v in the selected format; markdown is used for Markdown.
func (o *outputFlags) render(v any, markdown func() string) ([]byte, error) {
	switch strings.ToLower(o.format) {
	case "json":
		return utils.PrettyJSON(v)
	case "yaml", "yml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	default:
		return []byte(markdown()), nil
	}
}

// emit writes the rendered report to --output or stdout and archives it when
// --save is set.
func (o *outputFlags) emit(cmd *cobra.Command, datasetName, title string, data []byte) error {
	if o.output != "" {
		if err := utils.SafeWriteFile(o.output, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", o.output)
	} else {
		out := cmd.OutOrStdout()
		if _, err := out.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Fprintln(out)
		}
	}
	if o.save {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		e, err := archive.NewStore(c.ReportsDir, nil).Save(datasetName, title, o.format, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Archived report %s\n", e.ID)
	}
	return nil
}
