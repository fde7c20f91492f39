package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	ports "manicash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the subset of the Sheets values API the client uses.
type fakeSheets struct {
	mu   sync.Mutex
	rows [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Transactions!A2:G2"},
		})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.rows = append(vr.Values, f.rows...)
		json.NewEncoder(w).Encode(map[string]any{})
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "!G:G"):
		col := make([][]any, 0, len(f.rows))
		for _, row := range f.rows {
			col = append(col, []any{row[len(row)-1]})
		}
		json.NewEncoder(w).Encode(map[string]any{"values": col})
	case r.Method == http.MethodGet:
		var values [][]any
		if len(f.rows) > 0 {
			values = f.rows[:1]
		}
		json.NewEncoder(w).Encode(map[string]any{"values": values})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	c, err := NewWithService(svc, "sheet-id", "")
	if err != nil {
		t.Fatalf("NewWithService: %v", err)
	}
	return c, fake
}

func TestNewWithService_MissingSpreadsheetID(t *testing.T) {
	_, err := NewWithService(nil, "  ", "Transactions")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-id", "Transactions")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_AppendAndContains(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader again: %v", err)
	}

	row := ports.Row{Date: "2024-03-05", Type: "EXPENSE", Category: "Food", Description: "Lunch", Amount: "150", Wallet: "Main", ID: "t1"}
	ref, err := c.Append(ctx, row)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "Transactions!A2:G2" {
		t.Errorf("ref = %q", ref)
	}

	if len(fake.rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(fake.rows))
	}
	if fake.rows[0][0] != "Date" {
		t.Errorf("header = %v", fake.rows[0])
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"t1", true},
		{"t2", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := c.Contains(ctx, tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestClient_AppendRequiresID(t *testing.T) {
	c, _ := newTestClient(t)
	if _, err := c.Append(context.Background(), ports.Row{Date: "2024-03-05"}); err == nil {
		t.Fatal("expected error for row without id")
	}
}
