package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
	"github.com/emiliopalmerini/mltrainer/internal/flow"
	"github.com/emiliopalmerini/mltrainer/internal/util"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Upload a dataset and train models",
	Long: `Upload a CSV dataset to the backend and train models for a target variable.

Without --target, the dataset is uploaded and its columns are listed.

Examples:
  mltrainer train --file data.csv                  # List the columns
  mltrainer train --file data.csv --target price   # Train for "price"`,
	RunE: runTrain,
}

var (
	trainFile   string
	trainTarget string
)

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVarP(&trainFile, "file", "f", "", "CSV dataset to upload")
	trainCmd.Flags().StringVarP(&trainTarget, "target", "t", "", "Target variable to train for")
	_ = trainCmd.MarkFlagRequired("file")
}

func runTrain(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(trainFile)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}

	a, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	file := &domain.File{Name: filepath.Base(trainFile), Content: content}
	return trainDataset(commandContext(cmd), a.Deps(), cmd.OutOrStdout(), file, trainTarget)
}

// trainDataset walks the training page the way a user would: choose the
// file, upload it, pick the target and train.
func trainDataset(ctx context.Context, deps flow.Deps, out io.Writer, file *domain.File, target string) error {
	tr := flow.NewTraining(deps)
	tr.Mount()
	if _, err := tr.ChooseFile(file); err != nil {
		return err
	}

	fmt.Fprintf(out, "Uploading %s (%s)...\n", file.Name, util.FormatBytes(int64(len(file.Content))))

	s, err := tr.Upload(ctx)
	if err != nil {
		return err
	}
	if s.ErrorMessage != "" {
		return errors.New(s.ErrorMessage)
	}

	fmt.Fprintf(out, "Columns (%d): %s\n", len(s.DiscoveredColumns), strings.Join(s.DiscoveredColumns, ", "))
	if target == "" {
		return nil
	}

	if _, err := tr.ChooseTarget(target); err != nil {
		return err
	}
	s, err = tr.Train(ctx)
	if err != nil {
		return err
	}
	if s.ErrorMessage != "" {
		return errors.New(s.ErrorMessage)
	}

	fmt.Fprintf(out, "Models trained successfully for %q.\n", target)
	fmt.Fprintf(out, "Prediction page: %s\n", s.PredictionURL)
	return nil
}
