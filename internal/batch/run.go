package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/receipt-fields/internal/extract"
	"github.com/zombor/receipt-fields/internal/fragment"
)

// Input is one receipt's already-filtered fragments
type Input struct {
	FileName  string
	Fragments []fragment.Fragment
}

// Run extracts every input with at most workers concurrent extractions.
// Receipts share no state, so the result only depends on the inputs; the
// output order matches the input order.
func Run(ctx context.Context, inputs []Input, cfg extract.Config, workers int) ([]extract.Record, error) {
	if workers < 1 {
		workers = 1
	}

	records := make([]extract.Record, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("extracting %s: %w", in.FileName, err)
			}
			record := extract.Extract(in.Fragments, cfg)
			record.SourceFileName = in.FileName
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
