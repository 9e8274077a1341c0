package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mltrainer/internal/flow"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the features the trained model expects",
	RunE:  runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	a, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return listFeatures(commandContext(cmd), a.Deps(), cmd.OutOrStdout())
}

func listFeatures(ctx context.Context, deps flow.Deps, out io.Writer) error {
	s := flow.NewPrediction(deps).Mount(ctx)
	if s.ErrorMessage != "" {
		return errors.New(s.ErrorMessage)
	}
	for _, name := range s.FeatureNames {
		fmt.Fprintln(out, name)
	}
	return nil
}
