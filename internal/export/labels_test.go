package export

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestCollectLabelInfos_OnePerBar(t *testing.T) {
	labels := CollectLabelInfos(buildTestRun())

	if len(labels) != 5 {
		t.Fatalf("expected 5 labels (2 + 3 bars), got %d", len(labels))
	}

	first := labels[0]
	if first.Category != "12" || first.Bar != 1 || first.Of != 2 {
		t.Errorf("unexpected first label %+v", first)
	}
	if first.Pattern != "2 x 5.00 + 1 x 2.00" {
		t.Errorf("unexpected pattern %q", first.Pattern)
	}
	if len(first.Cuts) != 3 || first.Cuts[0] != 5 || first.Cuts[2] != 2 {
		t.Errorf("unexpected cuts %v", first.Cuts)
	}

	last := labels[4]
	if last.Category != "16" || last.Bar != 3 || last.Of != 3 || last.Waste != 5 {
		t.Errorf("unexpected last label %+v", last)
	}
	if last.RunID != "run-1" {
		t.Errorf("expected run ID on label, got %q", last.RunID)
	}
}

func TestLabelInfo_JSONRoundTrip(t *testing.T) {
	info := CollectLabelInfos(buildTestRun())[0]

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded LabelInfo
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Category != info.Category || decoded.Bar != info.Bar || decoded.Pattern != info.Pattern {
		t.Errorf("round trip mismatch: %+v vs %+v", decoded, info)
	}
}

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestRun()); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertFileWritten(t, path, 500)
}

func TestExportLabels_MultiplePages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")

	run := buildTestRun()
	r := *run.Outcomes[1].Result
	r.Patterns[0].Count = 40
	r.TotalBars = 40
	run.Outcomes[1].Result = &r

	if len(CollectLabelInfos(run)) <= labelsPerPage {
		t.Fatal("test run should need more than one page")
	}
	if err := ExportLabels(path, run); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertFileWritten(t, path, 1000)
}
