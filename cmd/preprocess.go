package cmd

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagTrainPath  string
	flagStoresPath string
	flagDailyPath  string
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Join train.csv with store.csv and write daily_sales.csv",
	RunE:  runPreprocess,
}

func init() {
	preprocessCmd.Flags().StringVar(&flagTrainPath, "train", "", "Transactions CSV (default from config)")
	preprocessCmd.Flags().StringVar(&flagStoresPath, "stores", "", "Store metadata CSV (default from config)")
	preprocessCmd.Flags().StringVarP(&flagDailyPath, "output", "o", "", "Daily series output CSV (default from config)")
	rootCmd.AddCommand(preprocessCmd)
}

func preprocessConfig() pipeline.PreprocessConfig {
	return pipeline.PreprocessConfig{
		TrainPath:  orDefault(flagTrainPath, cfg.Paths.Train),
		StoresPath: orDefault(flagStoresPath, cfg.Paths.Stores),
		OutputPath: orDefault(flagDailyPath, cfg.Paths.DailySales),
	}
}

func runPreprocess(_ *cobra.Command, _ []string) error {
	pc := preprocessConfig()
	res, err := pipeline.Preprocess(pc)
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	printPreprocess(pc, res)
	return nil
}

func printPreprocess(pc pipeline.PreprocessConfig, res *pipeline.PreprocessResult) {
	if flagQuiet {
		return
	}
	openNote := "no Open column, all rows kept"
	if res.OpenFiltered {
		openNote = cli.FormatNumber(int64(res.DroppedClosed)) + " closed-store rows dropped"
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle("PREPROCESS"))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Transactions", cli.FormatNumber(int64(res.RowsRead))},
		{"Open filter", openNote},
		{"Unparseable sales", cli.FormatNumber(int64(res.SkippedRows))},
		{"Unknown stores", cli.FormatNumber(int64(res.UnknownStores))},
		{"Rows written", cli.FormatNumber(int64(res.RowsWritten))},
		{"Output", pc.OutputPath},
	}))
	fmt.Println()
}

func orDefault(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
