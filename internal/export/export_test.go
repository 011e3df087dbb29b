package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
)

// buildTestRun creates a run with two solved categories and one failure.
func buildTestRun() model.RunResult {
	r12 := &model.OptimizationResult{
		Category: "12", BinCapacity: 12,
		Lengths: []float64{5, 2, 3.5}, Counts: []int{4, 2, 0},
		TheoreticalMin: 2, TotalDemand: 24, TotalBars: 2, TotalCapacity: 24,
		PhaseUsed: 2, UsedEfficiency: 0.85, PoolSize: 10,
		Patterns: []model.UsedPattern{
			{Combo: []int{2, 1, 0}, Count: 2, TotalLength: 12, Waste: 0},
		},
	}
	r16 := &model.OptimizationResult{
		Category: "16", BinCapacity: 12,
		Lengths: []float64{7}, Counts: []int{3},
		TheoreticalMin: 2, TotalDemand: 21, TotalBars: 3, TotalWaste: 15, TotalCapacity: 36,
		WastePercentage: 15.0 / 36.0 * 100, PhaseUsed: 1, UsedEfficiency: 0.55, Phase1Waste: 15, PoolSize: 1,
		Patterns: []model.UsedPattern{
			{Combo: []int{1}, Count: 3, TotalLength: 7, Waste: 5},
		},
	}
	outcomes := []model.CategoryOutcome{
		{Key: "12", Status: model.StatusSolved, Result: r12},
		{Key: "16", Status: model.StatusSolved, Result: r16},
		{Key: "20", Status: model.StatusCutTooLong, Message: "cut length 14 exceeds bar length 12"},
	}
	return model.RunResult{
		ID:        "run-1",
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Settings:  model.DefaultSettings(),
		Outcomes:  outcomes,
		Summary:   model.Summarize(outcomes),
	}
}

// failedRun has outcomes but nothing solved.
func failedRun() model.RunResult {
	outcomes := []model.CategoryOutcome{{Key: "12", Status: model.StatusInfeasible}}
	return model.RunResult{Outcomes: outcomes, Summary: model.Summarize(outcomes)}
}

func TestExporters_NoSolution(t *testing.T) {
	dir := t.TempDir()
	exporters := map[string]func(string, model.RunResult) error{
		"pdf":    ExportPDF,
		"labels": ExportLabels,
		"xlsx":   ExportXLSX,
		"dxf":    ExportDXF,
	}
	for name, export := range exporters {
		for _, run := range []model.RunResult{{}, failedRun()} {
			path := filepath.Join(dir, "out."+name)
			err := export(path, run)
			if !errors.Is(err, ErrNoSolution) {
				t.Errorf("%s: expected ErrNoSolution, got %v", name, err)
			}
			if _, statErr := os.Stat(path); statErr == nil {
				t.Errorf("%s: no file should be written", name)
			}
		}
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, failedRun()); !errors.Is(err, ErrNoSolution) {
		t.Errorf("text: expected ErrNoSolution, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("text: nothing should be written")
	}
}

func TestSortedPatterns_LeastWasteFirst(t *testing.T) {
	r := model.OptimizationResult{Patterns: []model.UsedPattern{
		{Combo: []int{1}, Count: 1, Waste: 3},
		{Combo: []int{2}, Count: 1, Waste: 1},
		{Combo: []int{3}, Count: 1, Waste: 2},
	}}
	got := sortedPatterns(r)
	if got[0].Waste != 1 || got[1].Waste != 2 || got[2].Waste != 3 {
		t.Errorf("unexpected order %+v", got)
	}
	if r.Patterns[0].Waste != 3 {
		t.Error("input patterns must not be reordered")
	}
}

func TestSegments_LongestFirst(t *testing.T) {
	p := model.UsedPattern{Combo: []int{1, 2}}
	got := segments(p, []float64{2, 5})
	want := []float64{5, 5, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(got))
	}
	for i, seg := range got {
		if seg.length != want[i] {
			t.Errorf("segment %d: expected %.1f, got %.1f", i, want[i], seg.length)
		}
	}
	if got[2].typeIdx != 0 {
		t.Errorf("expected the 2.0 piece to keep type 0, got %d", got[2].typeIdx)
	}
}

func assertFileWritten(t *testing.T, path string, minSize int64) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file was not created: %v", err)
	}
	if info.Size() < minSize {
		t.Errorf("file seems too small: %d bytes", info.Size())
	}
}

func fileHasPrefix(t *testing.T, path, prefix string) bool {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.HasPrefix(string(data), prefix)
}
