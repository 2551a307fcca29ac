package obs

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReplayMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReplayMetrics(reg)

	m.ObserveTrace(ResultPass, 2*time.Millisecond)
	m.ObserveTrace(ResultFail, time.Millisecond)
	m.ObserveTrace(ResultPass, time.Millisecond)
	m.ObserveStep("deposit_action", "")
	m.ObserveStep("withdraw_action", "insufficient_funds")
	m.ObserveMismatch(MismatchError)

	if got := testutil.ToFloat64(m.Traces.WithLabelValues(ResultPass)); got != 2 {
		t.Fatalf("pass traces = %v", got)
	}
	if got := testutil.ToFloat64(m.Steps.WithLabelValues("deposit_action", "none")); got != 1 {
		t.Fatalf("deposit steps = %v", got)
	}
	if got := testutil.ToFloat64(m.Mismatches.WithLabelValues(MismatchError)); got != 1 {
		t.Fatalf("error mismatches = %v", got)
	}
	if n := testutil.CollectAndCount(m.TraceDuration); n != 1 {
		t.Fatalf("duration series = %d", n)
	}
}

func TestNilReplayMetrics(t *testing.T) {
	var m *ReplayMetrics
	m.ObserveTrace(ResultPass, time.Second)
	m.ObserveStep("init", "")
	m.ObserveMismatch(MismatchState)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReplayMetrics(reg)
	RegisterBuildInfo(reg, "1.2.3", "abc")
	m.ObserveTrace(ResultPass, time.Millisecond)

	path := filepath.Join(t.TempDir(), "bankmbt.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`bankmbt_traces_total{result="pass"} 1`,
		`bankmbt_build_info{commit="abc",version="1.2.3"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLogEvent(t *testing.T) {
	logger := Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	LogEvent("info", "replay.start", map[string]any{"traces": 3})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["msg"] != "replay.start" || entry["level"] != "info" || entry["traces"] != float64(3) {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("missing ts")
	}
}
