package cmd

import (
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
)

var datasourcesCmd = &cobra.Command{
	Use:   "datasources",
	Short: "List the supported datasource types",
	Long:  "datasources prints every adapter compiled into this binary. Use the type with DATASOURCE_TYPE.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderAdapters(cmd.OutOrStdout(), datasource.RegisteredAdapters())
	},
}

func init() {
	rootCmd.AddCommand(datasourcesCmd)
}

func renderAdapters(out io.Writer, adapters []datasource.DatasourceAdapterInfo) error {
	data := pterm.TableData{{"TYPE", "NAME", "DEFAULT PORT", "DESCRIPTION"}}
	for _, a := range adapters {
		data = append(data, []string{a.Type, a.DisplayName, strconv.Itoa(a.DefaultPort), a.Description})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}
