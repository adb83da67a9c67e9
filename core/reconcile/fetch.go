package reconcile

import (
	"context"

	"go.uber.org/zap"
)

// FetchAll reads every page of the remote table, following continuation cursors
// until a page comes back without one.
//
// A failure on any page returns a *FetchError and no records: the records of the
// pages already read are discarded rather than exposed as a partial snapshot.
// FetchAll does not retry.
func FetchAll(ctx context.Context, spec *Spec, lister Lister) ([]RemoteRecord, error) {
	log := spec.logger()

	var (
		records []RemoteRecord
		offset  string
	)

	for page := 1; ; page++ {
		// Cancellation is only honoured between calls.
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Page: page, Fetched: len(records), Err: err}
		}

		result, err := listPage(ctx, spec, lister, offset)
		if err != nil {
			log.Error("Remote page fetch failed",
				zap.Int("page", page),
				zap.Int("discarded", len(records)),
				zap.Error(err),
			)
			return nil, &FetchError{Page: page, Fetched: len(records), Err: err}
		}

		records = append(records, result.Records...)
		log.Debug("Fetched remote page",
			zap.Int("page", page),
			zap.Int("records", len(result.Records)),
			zap.Bool("more", result.Offset != ""),
		)

		if result.Offset == "" {
			break
		}
		offset = result.Offset
	}

	log.Info("Fetched remote snapshot", zap.Int("records", len(records)))
	return records, nil
}

func listPage(ctx context.Context, spec *Spec, lister Lister, offset string) (Page, error) {
	if spec.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.CallTimeout)
		defer cancel()
	}
	return lister.ListRecords(ctx, offset)
}
