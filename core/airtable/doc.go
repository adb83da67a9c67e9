// Package airtable is a minimal client for the Airtable REST API.
//
// It implements the reconcile.Lister and reconcile.Mutator collaborators:
//
//   - ListRecords: GET /v0/{base}/{table} with an optional offset cursor.
//   - CreateRecords: POST up to MaxRecordsPerRequest records.
//   - UpdateRecords: PATCH up to MaxRecordsPerRequest {id, fields} pairs.
//
// Non-success responses are returned as *APIError carrying the HTTP status and
// the error type and message from the response body. The client never retries.
//
// # Usage
//
//	client, err := airtable.NewClient(cfg.Airtable)
//	page, err := client.ListRecords(ctx, "")
package airtable
