package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-sync/core/reconcile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClientWithHTTP(Config{
		APIKey:    "pat123",
		BaseID:    "appBase",
		TableName: "LiveIQ Employees",
		BaseURL:   srv.URL + "/v0",
		PageSize:  100,
		Typecast:  true,
	}, srv.Client())
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{BaseID: "app", TableName: "t"})
	assert.Error(t, err)

	_, err = NewClient(Config{APIKey: "k", TableName: "t"})
	assert.Error(t, err)

	_, err = NewClient(Config{APIKey: "k", BaseID: "app"})
	assert.Error(t, err)

	client, err := NewClient(Config{APIKey: "k", BaseID: "app", TableName: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.airtable.com/v0/app/t", client.tableURL)
}

// TestListRecords tests the request shape and page decoding.
func TestListRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v0/appBase/LiveIQ Employees", r.URL.Path)
		assert.Equal(t, "Bearer pat123", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "itr1", r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"records":[{"id":"rec1","createdTime":"2024-01-01T00:00:00.000Z","fields":{"LiQ - Payroll Number":"E1","LiQ - Position":["Crew"]}}],"offset":"itr2"}`)
	})

	page, err := client.ListRecords(context.Background(), "itr1")
	require.NoError(t, err)

	assert.Equal(t, "itr2", page.Offset)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "rec1", page.Records[0].ID)
	key, ok := page.Records[0].Fields.Get("LiQ - Payroll Number")
	require.True(t, ok)
	assert.Equal(t, "E1", reconcile.KeyString(key))
	pos, _ := page.Records[0].Fields.Get("LiQ - Position")
	items, ok := pos.Strings()
	require.True(t, ok)
	assert.Equal(t, []string{"Crew"}, items)
}

func TestListRecords_FirstPageHasNoOffset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["offset"]
		assert.False(t, present)
		_, _ = io.WriteString(w, `{"records":[]}`)
	})

	page, err := client.ListRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Empty(t, page.Offset)
}

// TestCreateRecords tests that inserts are posted with the full field set and typecast.
func TestCreateRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"records":[{"fields":{"LiQ - Payroll Number":"E9","LiQ - Salaried Employee":true}}],"typecast":true}`, string(body))

		_, _ = io.WriteString(w, `{"records":[{"id":"recNew","fields":{"LiQ - Payroll Number":"E9"}}]}`)
	})

	created, err := client.CreateRecords(context.Background(), []reconcile.InsertOp{{
		Key: "E9",
		Fields: reconcile.NewFields(
			reconcile.F("LiQ - Payroll Number", reconcile.String("E9")),
			reconcile.F("LiQ - Salaried Employee", reconcile.Bool(true)),
		),
	}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "recNew", created[0].ID)
}

// TestUpdateRecords tests that updates are sent as PATCH with record ids.
func TestUpdateRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)

		var req struct {
			Records []struct {
				ID     string         `json:"id"`
				Fields map[string]any `json:"fields"`
			} `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Records, 2)
		assert.Equal(t, "recA", req.Records[0].ID)
		assert.Equal(t, "Smith", req.Records[1].Fields["LiQ - Last Name"])

		_, _ = io.WriteString(w, `{"records":[{"id":"recA","fields":{}},{"id":"recB","fields":{}}]}`)
	})

	updated, err := client.UpdateRecords(context.Background(), []reconcile.UpdateOp{
		{ID: "recA", Fields: reconcile.NewFields(reconcile.F("LiQ - Last Name", reconcile.String("Jones")))},
		{ID: "recB", Fields: reconcile.NewFields(reconcile.F("LiQ - Last Name", reconcile.String("Smith")))},
	})
	require.NoError(t, err)
	assert.Len(t, updated, 2)
}

func TestWrites_RejectOversizedBatches(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.CreateRecords(context.Background(), make([]reconcile.InsertOp, MaxRecordsPerRequest+1))
	assert.ErrorIs(t, err, ErrTooManyRecords)

	_, err = client.UpdateRecords(context.Background(), make([]reconcile.UpdateOp, MaxRecordsPerRequest+1))
	assert.ErrorIs(t, err, ErrTooManyRecords)

	created, err := client.CreateRecords(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, created)
}

// TestAPIError tests decoding of both error body shapes.
func TestAPIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType string
		wantMsg  string
	}{
		{"detailed", http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_MULTIPLE_CHOICE_OPTIONS","message":"Insufficient permissions to create new select option"}}`, "INVALID_MULTIPLE_CHOICE_OPTIONS", "Insufficient permissions to create new select option"},
		{"plain", http.StatusNotFound, `{"error":"NOT_FOUND"}`, "NOT_FOUND", ""},
		{"not json", http.StatusServiceUnavailable, `upstream down`, "Service Unavailable", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListRecords(context.Background(), "")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

// TestClient_FeedsFetchAll tests that the client satisfies the fetcher end to end.
func TestClient_FeedsFetchAll(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "":
			_, _ = io.WriteString(w, `{"records":[{"id":"rec1","fields":{"k":"A"}}],"offset":"next"}`)
		case "next":
			_, _ = io.WriteString(w, `{"records":[{"id":"rec2","fields":{"k":"B"}}]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	records, err := reconcile.FetchAll(context.Background(), &reconcile.Spec{KeyField: "k"}, client)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec2", records[1].ID)
}
