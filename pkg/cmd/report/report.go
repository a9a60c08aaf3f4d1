package report

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stleox/seecov/pkg/config"
	"github.com/stleox/seecov/pkg/covdata"
)

var (
	fileColor  = color.New(color.FgGreen, color.Bold)
	countColor = color.New(color.FgYellow)
)

func New(vp *viper.Viper) *cobra.Command {
	report := &cobra.Command{
		Use:   "report [datafile]",
		Short: "Summarize a coverage data file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := vp.GetString("SEECOV_DATA_FILE")
			if path == "" {
				path = config.DefaultDataFile
			}
			if len(args) == 1 {
				path = args[0]
			}

			data := covdata.New(path)
			if err := data.Read(); err != nil {
				return err
			}

			files := data.Files()
			if len(files) == 0 {
				fmt.Println("no coverage data")
				return nil
			}

			total := 0
			for _, file := range files {
				lines := len(data.Lines[file])
				arcs := len(data.Arcs[file])
				total += lines + arcs

				line := fmt.Sprintf("%s  lines=%s arcs=%s",
					fileColor.Sprint(file),
					countColor.Sprint(lines),
					countColor.Sprint(arcs))
				if plugin := data.Plugins[file]; plugin != "" {
					line += fmt.Sprintf(" plugin=%s", plugin)
				}
				if callers := len(data.Callers[file]); callers > 0 {
					line += fmt.Sprintf(" callers=%d", callers)
				}
				fmt.Println(line)
			}
			fmt.Printf("%d files, %d observations\n", len(files), total)
			return nil
		},
	}
	return report
}
