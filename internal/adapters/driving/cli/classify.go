package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/services"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [tasks...]",
	Short: "Show which source each task resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	classifier := services.NewClassifier()

	failed := 0
	for _, task := range args {
		kind, err := classifier.Classify(task)
		if err != nil {
			cmd.Printf("%-20s %s\n", "unsupported", task)
			failed++
			continue
		}
		cmd.Printf("%-20s %s\n", kind, task)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tasks: %w", failed, len(args), domain.ErrUnsupportedTask)
	}
	return nil
}
