package importer

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseDocument_YAML(t *testing.T) {
	data := []byte(`
bin_capacity: 12
categories:
  12:
    lengths: [3.5, 2.0, 3.5]
    counts: [2, 4, 1]
  "16":
    lengths: [6]
    counts: [3]
    bin_capacity: 6
`)
	result := ParseDocument(data)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.BinCapacity != 12 {
		t.Errorf("expected bar length 12, got %f", result.BinCapacity)
	}
	d12 := result.Demands["12"]
	if !reflect.DeepEqual(d12.Lengths, []float64{3.5, 2.0}) || !reflect.DeepEqual(d12.Counts, []int{3, 4}) {
		t.Errorf("expected merged category 12, got %+v", d12)
	}
	if result.Demands["16"].BinCapacity != 6 {
		t.Errorf("expected override 6, got %f", result.Demands["16"].BinCapacity)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected one merge warning, got %v", result.Warnings)
	}
}

func TestParseDocument_JSON(t *testing.T) {
	data := []byte(`{"categories": {"8": {"lengths": [1.5], "counts": [10]}}}`)
	result := ParseDocument(data)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Demands["8"].Counts, []int{10}) {
		t.Errorf("unexpected category 8: %+v", result.Demands["8"])
	}
}

func TestParseDocument_UnknownField(t *testing.T) {
	result := ParseDocument([]byte("categories:\n  12:\n    lengths: [1]\n    counts: [1]\n    colour: red\n"))
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Cannot parse") {
		t.Errorf("expected parse error for unknown field, got %v", result.Errors)
	}
}

func TestParseDocument_ValidationErrors(t *testing.T) {
	tests := map[string]string{
		"no categories":   "bin_capacity: 12\n",
		"negative length": "categories:\n  12:\n    lengths: [-1]\n    counts: [1]\n",
		"negative count":  "categories:\n  12:\n    lengths: [1]\n    counts: [-1]\n",
		"zero length":     "categories:\n  12:\n    lengths: [0, 2]\n    counts: [1, 1]\n",
		"empty counts":    "categories:\n  12:\n    lengths: [2]\n    counts: []\n",
	}
	for name, doc := range tests {
		result := ParseDocument([]byte(doc))
		if len(result.Errors) == 0 {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestParseDocument_MismatchedCategorySkipped(t *testing.T) {
	data := []byte("categories:\n  12:\n    lengths: [1, 2]\n    counts: [1]\n  16:\n    lengths: [3]\n    counts: [1]\n")
	result := ParseDocument(data)

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Category 12") {
		t.Errorf("expected mismatch error for category 12, got %v", result.Errors)
	}
	if _, ok := result.Demands["12"]; ok {
		t.Error("mismatched category should be skipped")
	}
	if _, ok := result.Demands["16"]; !ok {
		t.Error("valid category should be kept")
	}
}

func TestImportDocument_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demand.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  10:\n    lengths: [2.5]\n    counts: [4]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	result := ImportFile(path)
	if len(result.Errors) > 0 || result.Rows != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}
