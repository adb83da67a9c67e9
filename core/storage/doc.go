// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small Client interface so the sync
// service can be tested with the mocks in core/storage/mocks. Both AWS S3 and
// self-hosted MinIO are supported.
//
// # Operations
//
//   - EnsureBucket: creates the bucket on first use.
//   - Download / Latest: fetch a roster export by name or the newest under a prefix.
//   - PutBytes: archive a source file or a JSON run report.
//   - Prune: drop archived run folders beyond the retention count.
//
// # Archive Layout
//
//	<archive_prefix>/<run folder>/source.xlsx
//	<archive_prefix>/<run folder>/report.json
//
// Run folders start with a UTC timestamp so lexical order is chronological.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket)
package storage
