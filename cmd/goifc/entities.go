package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/goifc/pkg/analysis"
)

var entitiesCount int

var entitiesCmd = &cobra.Command{
	Use:   "entities [file]",
	Short: "Count the entity types of an IFC file",
	Long:  "List the entity types in the DATA section of an IFC file, most frequent first.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntities,
}

func init() {
	entitiesCmd.Flags().IntVarP(&entitiesCount, "count", "n", 0, "Number of types to display (0 for all)")
}

func runEntities(c *cobra.Command, args []string) error {
	filename := args[0]
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	model, logger, err := loadModel(ctx, filename)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}
	defer logger.Sync()

	counts := analysis.SortedCounts(model.TypeCounts)
	total := 0
	for _, tc := range counts {
		total += tc.Count
	}
	if entitiesCount > 0 && len(counts) > entitiesCount {
		counts = counts[:entitiesCount]
	}

	out := c.OutOrStdout()
	fmt.Fprintf(out, "%d entities of %d types\n\n", total, len(model.TypeCounts))
	fmt.Fprintf(out, "%-40s %s\n", "Type", "Count")
	fmt.Fprintln(out, "------------------------------------------------")
	for _, tc := range counts {
		fmt.Fprintf(out, "%-40s %d\n", tc.Type, tc.Count)
	}
	return nil
}
