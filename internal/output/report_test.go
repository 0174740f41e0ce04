package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"Proxy_Checker_Go/pkg/model"
)

func sampleOutcomes() []model.Outcome {
	latency, ping := int64(120), int64(35)
	anon := true
	speed := 512.25
	return []model.Outcome{
		{Raw: "1.2.3.4:8080", Verdict: model.VerdictPassed, LatencyMs: &latency, PingMs: &ping, Anonymous: &anon, ThroughputKBps: &speed},
		{Raw: "u:p@5.6.7.8:3128", Verdict: model.VerdictPassed, LatencyMs: &latency, BelowMinSpeed: true},
	}
}

func TestWriteReport_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := WriteReport(path, sampleOutcomes()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d, want header + 2", len(rows))
	}
	want := []string{"1.2.3.4:8080", "passed", "120", "35", "true", "512.25", "false"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Fatalf("row1[%d]=%q, want %q", i, rows[1][i], v)
		}
	}
	if rows[2][3] != "" || rows[2][4] != "" || rows[2][6] != "true" {
		t.Fatalf("row2=%q, want empty optional fields", rows[2])
	}
}

func TestWriteReport_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteReport(path, sampleOutcomes()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0]["Proxy"] != "1.2.3.4:8080" {
		t.Fatalf("got %v", got)
	}
	if _, ok := got[1]["PingMS"]; ok {
		t.Fatalf("absent ping should be omitted: %v", got[1])
	}
}

func TestWriteReport_UnknownExtension(t *testing.T) {
	if err := WriteReport(filepath.Join(t.TempDir(), "report.xml"), nil); err == nil {
		t.Fatalf("expected error")
	}
}
