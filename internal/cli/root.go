package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mltrainer",
	Short: "Web front end for training and querying ML models",
	Long: `mltrainer is a thin front end for an ML backend service.

Upload a CSV dataset, pick the target variable and train models on the
training page, then fill in the feature values on the prediction page to
get a prediction. Every computation happens in the backend.

Configuration is read from MLTRAINER_* environment variables and an
optional .env file.`,
	SilenceUsage: true,
}

// Persistent flags
var backendURL string

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "ML backend base URL (overrides MLTRAINER_BACKEND_URL)")
}
