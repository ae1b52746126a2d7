package quotes

import (
	"errors"
	"testing"

	"github.com/mselser95/cex-arb/pkg/types"
)

func TestStatusTracker_EntriesExistFromConstruction(t *testing.T) {
	tracker := NewStatusTracker([]string{"bybit", "okx"})

	snap := tracker.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}

	if snap["bybit"].Connected {
		t.Error("expected disconnected before first poll")
	}
}

func TestStatusTracker_ErrorThenRecovery(t *testing.T) {
	tracker := NewStatusTracker([]string{"bybit"})

	pollErr := errors.New("dial tcp: i/o timeout")
	for i := 0; i < 5; i++ {
		tracker.RecordError("bybit", pollErr)
	}

	status := tracker.Snapshot()["bybit"]
	if status.Connected {
		t.Error("expected disconnected after errors")
	}

	if status.ErrorCount != 5 {
		t.Errorf("expected error_count=5, got %d", status.ErrorCount)
	}

	if status.LastError == "" {
		t.Error("expected last_error to be set")
	}

	// A successful poll reconnects and refreshes the timestamp but keeps
	// the accumulated error count.
	tracker.MarkUpdated("bybit", 12345, 42)

	status = tracker.Snapshot()["bybit"]
	if !status.Connected {
		t.Error("expected connected after recovery")
	}

	if status.LastUpdateMS != 12345 || status.QuoteCount != 42 {
		t.Errorf("unexpected status after recovery: %+v", status)
	}

	if status.ErrorCount != 5 {
		t.Errorf("error count lost on recovery: %d", status.ErrorCount)
	}
}

func TestStatusTracker_OnChangeFiresOnTransitionsOnly(t *testing.T) {
	tracker := NewStatusTracker([]string{"bybit"})

	fired := 0
	tracker.OnChange(func(map[string]types.ExchangeStatus) { fired++ })

	tracker.MarkUpdated("bybit", 100, 1) // disconnected -> connected
	tracker.MarkUpdated("bybit", 200, 2) // still connected, no transition
	tracker.SetQuoteCount("bybit", 3)    // never fires
	tracker.RecordError("bybit", errors.New("boom")) // connected -> disconnected
	tracker.RecordError("bybit", errors.New("boom")) // still disconnected

	if fired != 2 {
		t.Errorf("expected 2 transitions, got %d", fired)
	}
}
