package commands

import (
	"fmt"
)

// Schedule builds the same task graph Demo runs and prints its
// execution batches without running anything, so a cycle or missing
// dependency surfaces as an error before any module is touched.
func Schedule(_ []string) error {
	graph := BuildGraph()
	if err := graph.Validate(); err != nil {
		return fmt.Errorf("validating schedule: %w", err)
	}
	batches, err := graph.ExecutionBatches()
	if err != nil {
		return fmt.Errorf("computing schedule: %w", err)
	}

	fmt.Printf("arcopt schedule — %d passes, %d batches\n", graph.PassCount(), len(batches))
	for i, batch := range batches {
		fmt.Printf("  batch %d: %v\n", i+1, batch)
	}
	return nil
}
