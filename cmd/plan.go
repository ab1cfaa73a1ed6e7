package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/skiptrace-cli/internal/batch"
	"github.com/sells-group/skiptrace-cli/internal/model"
	"github.com/sells-group/skiptrace-cli/internal/store"
)

var (
	planInput      string
	planBatchSize  int
	planMaxRecords int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the work list and batch layout without performing lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := planInput
		if inputPath == "" {
			found, err := store.FindInput(".")
			if err != nil {
				return eris.Wrap(err, "resolve input")
			}
			inputPath = found
		}

		table, err := store.Load(inputPath)
		if err != nil {
			return eris.Wrap(err, "load input")
		}

		maxRecords := planMaxRecords
		if maxRecords == 0 {
			maxRecords = cfg.Batch.MaxRecords
		}
		items := store.BuildWorkList(table, maxRecords)

		batchSize := planBatchSize
		if batchSize == 0 {
			batchSize = cfg.Batch.Size
		}
		batches := batch.Partition(items, batchSize)

		sizes := make([]int, len(batches))
		for i, b := range batches {
			sizes[i] = len(b)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Input      string           `json:"input"`
			Rows       int              `json:"rows"`
			WorkItems  int              `json:"work_items"`
			BatchSize  int              `json:"batch_size"`
			BatchSizes []int            `json:"batch_sizes"`
			Items      []model.WorkItem `json:"items"`
		}{
			Input:      inputPath,
			Rows:       len(table.Rows),
			WorkItems:  len(items),
			BatchSize:  batchSize,
			BatchSizes: sizes,
			Items:      items,
		})
	},
}

func init() {
	planCmd.Flags().StringVar(&planInput, "input", "", "input CSV/XLSX path (default: auto-detect)")
	planCmd.Flags().IntVar(&planBatchSize, "batch-size", 0, "records per batch (default from config)")
	planCmd.Flags().IntVar(&planMaxRecords, "max-records", 0, "cap on work items, 0 = all")
	rootCmd.AddCommand(planCmd)
}
