package cmd

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagActualsOut string
	flagByStore    bool
)

var actualsCmd = &cobra.Command{
	Use:   "actuals",
	Short: "Sum transaction sales per day into actuals.csv",
	Long: "Sum transaction sales per day into actuals.csv. By default the file holds chain-wide\n" +
		"daily totals (ds,y); --by-store keeps one row per store and day (ds,Store,y) so the\n" +
		"dashboard can compare each store against its own actuals.",
	RunE: runActuals,
}

func init() {
	actualsCmd.Flags().StringVar(&flagTrainPath, "train", "", "Transactions CSV (default from config)")
	actualsCmd.Flags().StringVarP(&flagActualsOut, "output", "o", "", "Actuals output CSV (default from config)")
	actualsCmd.Flags().BoolVar(&flagByStore, "by-store", false, "Aggregate per store and day")
	rootCmd.AddCommand(actualsCmd)
}

func actualsConfig(cmd *cobra.Command) pipeline.ActualsConfig {
	byStore := cfg.Actuals.ByStore
	if cmd.Flags().Changed("by-store") {
		byStore = flagByStore
	}
	return pipeline.ActualsConfig{
		TrainPath:  orDefault(flagTrainPath, cfg.Paths.Train),
		OutputPath: orDefault(flagActualsOut, cfg.Paths.Actuals),
		ByStore:    byStore,
	}
}

func runActuals(cmd *cobra.Command, _ []string) error {
	ac := actualsConfig(cmd)
	res, err := pipeline.GenerateActuals(ac)
	if err != nil {
		return fmt.Errorf("actuals: %w", err)
	}
	printActuals(ac, res)
	return nil
}

func printActuals(ac pipeline.ActualsConfig, res *pipeline.ActualsResult) {
	if flagQuiet {
		return
	}
	shape := "ds,y (chain totals)"
	if res.ByStore {
		shape = "ds,Store,y"
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle("ACTUALS"))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Transactions", cli.FormatNumber(int64(res.RowsRead))},
		{"Rows written", cli.FormatNumber(int64(res.Rows))},
		{"Columns", shape},
		{"Output", ac.OutputPath},
	}))
	fmt.Println()
}
