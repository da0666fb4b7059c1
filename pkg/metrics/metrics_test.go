package metrics

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("loggly-slack", nil)

	c.RecordReceived()
	c.RecordReceived()
	c.RecordProcessed(10 * time.Millisecond)
	c.RecordProcessed(30 * time.Millisecond)
	c.RecordPublished()
	c.RecordError()
	c.IncrementCustom("entries_deduplicated")
	c.AddCustom("entries_deduplicated", 2)

	snap := c.GetSnapshot()

	if snap.ServiceName != "loggly-slack" {
		t.Errorf("ServiceName = %q, want loggly-slack", snap.ServiceName)
	}
	if snap.AlertsReceived != 2 {
		t.Errorf("AlertsReceived = %d, want 2", snap.AlertsReceived)
	}
	if snap.AlertsProcessed != 2 {
		t.Errorf("AlertsProcessed = %d, want 2", snap.AlertsProcessed)
	}
	if snap.DeliveriesSent != 1 {
		t.Errorf("DeliveriesSent = %d, want 1", snap.DeliveriesSent)
	}
	if snap.ProcessingErrors != 1 {
		t.Errorf("ProcessingErrors = %d, want 1", snap.ProcessingErrors)
	}
	if got := snap.CustomCounters["entries_deduplicated"]; got != 3 {
		t.Errorf("CustomCounters[entries_deduplicated] = %d, want 3", got)
	}
	if want := float64(20 * time.Millisecond); snap.AvgLatencyNs != want {
		t.Errorf("AvgLatencyNs = %v, want %v", snap.AvgLatencyNs, want)
	}
	if snap.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", snap.Status)
	}
}

func TestCollector_ConcurrentCustomCounters(t *testing.T) {
	c := NewCollector("loggly-slack", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementCustom("records_json")
		}()
	}
	wg.Wait()

	if got := c.GetSnapshot().CustomCounters["records_json"]; got != 50 {
		t.Errorf("records_json = %d, want 50", got)
	}
}

func TestCollector_StartStopWithoutRedis(t *testing.T) {
	c := NewCollector("loggly-slack", nil)
	c.SetReportInterval(10 * time.Millisecond)

	c.Start(context.Background())
	// Stop must be safe to call repeatedly.
	c.Stop()
	c.Stop()
}
