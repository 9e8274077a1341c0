package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front end",
	Long: `Start the training and prediction web pages.

Examples:
  mltrainer serve                                   # Listen on MLTRAINER_ADDR (default :8080)
  mltrainer serve --port 3000                       # Listen on port 3000
  mltrainer serve --backend-url http://ml:5000      # Use another backend`,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides MLTRAINER_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort > 0 {
		a.Config.Addr = fmt.Sprintf(":%d", servePort)
	}
	return a.Serve(commandContext(cmd))
}
