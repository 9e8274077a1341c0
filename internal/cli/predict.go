package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
	"github.com/emiliopalmerini/mltrainer/internal/flow"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Request a prediction from the trained model",
	Long: `Request a prediction for the given feature values.

Features without a --set value are sent as empty strings.

Examples:
  mltrainer predict --set age=34 --set income=52000`,
	RunE: runPredict,
}

var predictValues []string

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringArrayVarP(&predictValues, "set", "s", nil, "Feature value as name=value (repeatable)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	values, err := parseAssignments(predictValues)
	if err != nil {
		return err
	}

	a, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return predict(commandContext(cmd), a.Deps(), cmd.OutOrStdout(), values)
}

// parseAssignments splits name=value pairs. Values may contain '='.
func parseAssignments(pairs []string) ([][2]string, error) {
	out := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", p)
		}
		out = append(out, [2]string{name, value})
	}
	return out, nil
}

func predict(ctx context.Context, deps flow.Deps, out io.Writer, values [][2]string) error {
	p := flow.NewPrediction(deps)
	s := p.Mount(ctx)
	if s.ErrorMessage != "" {
		return errors.New(s.ErrorMessage)
	}

	for _, kv := range values {
		if _, err := p.SetField(kv[0], kv[1]); err != nil {
			if errors.Is(err, domain.ErrUnknownField) {
				return fmt.Errorf("%w %q, expected one of: %s", err, kv[0], strings.Join(s.FeatureNames, ", "))
			}
			return err
		}
	}

	s, err := p.Submit(ctx)
	if err != nil {
		return err
	}
	if s.ErrorMessage != "" {
		return errors.New(s.ErrorMessage)
	}

	fmt.Fprintf(out, "Prediction Result: %s\n", s.PredictionResult)
	return nil
}
