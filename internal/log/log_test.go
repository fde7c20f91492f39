package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"manicash/internal/core"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return rec
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, JSON: true, Output: &buf})

	l.Info("Recorded transaction", FieldAmount, 150)
	rec := decode(t, &buf)
	if rec[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentLedger)
	}
	if rec[FieldAmount] != float64(150) {
		t.Errorf("amount = %v", rec[FieldAmount])
	}

	buf.Reset()
	worker := l.WithComponent(ComponentWorker)
	worker.Info("Started")
	rec = decode(t, &buf)
	if rec[FieldComponent] != ComponentWorker {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentWorker)
	}
	if worker.Component() != ComponentWorker || l.Component() != ComponentLedger {
		t.Errorf("components = %s, %s", worker.Component(), l.Component())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, JSON: true, Output: &buf})
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %s", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Error("warn not logged")
	}
}

func TestFromContext(t *testing.T) {
	l := New(Config{Component: ComponentInsight, Output: &bytes.Buffer{}})
	ctx := NewContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("FromContext did not return the stored logger")
	}
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("fallback component = %q", got.Component())
	}
}

func TestLogFields(t *testing.T) {
	tx := core.Transaction{ID: "t1", WalletID: "w1", Type: core.Expense, Category: core.Food, Amount: core.NewMoney(150)}
	f := NewFields().
		WithOperation(OpRecord).
		WithHousehold("").
		WithTransaction(tx).
		WithError(errors.New("boom")).
		WithError(nil)

	if _, ok := f[FieldHousehold]; ok {
		t.Error("empty household should be omitted")
	}
	got := fmt.Sprint(f.ToSlice())
	want := "[amount 150 category Food error boom operation record transaction_id t1 type EXPENSE wallet_id w1]"
	if got != want {
		t.Errorf("ToSlice = %s, want %s", got, want)
	}
}
