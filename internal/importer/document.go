package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/BarCut/internal/model"
)

// Document is the YAML/JSON demand file layout:
//
//	bin_capacity: 12          # optional default bar length
//	categories:
//	  "12":
//	    lengths: [3.5, 2.0]
//	    counts: [10, 4]
//	    bin_capacity: 6       # optional per-category override
//
// JSON files use the same keys.
type Document struct {
	BinCapacity float64                     `yaml:"bin_capacity" validate:"gte=0"`
	Categories  map[string]DocumentCategory `yaml:"categories" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

// DocumentCategory is one category of a Document.
type DocumentCategory struct {
	Lengths     []float64 `yaml:"lengths" validate:"required,min=1,dive,gt=0"`
	Counts      []int     `yaml:"counts" validate:"required,min=1,dive,gte=0"`
	BinCapacity float64   `yaml:"bin_capacity" validate:"gte=0"`
}

// ImportDocument imports demand from a YAML or JSON document. Unknown keys
// are rejected. A category whose lengths and counts differ in size is
// reported and skipped; duplicate lengths within a category are merged.
func ImportDocument(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	return ParseDocument(data)
}

// ParseDocument decodes a demand document.
func ParseDocument(data []byte) ImportResult {
	result := ImportResult{Demands: model.Demands{}}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse document: %v", err))
		return result
	}

	validate := validator.New()
	if err := validate.Struct(doc); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid document: %v", err))
		return result
	}

	keys := make(model.Demands, len(doc.Categories))
	for key := range doc.Categories {
		keys[key] = model.CategoryDemand{}
	}
	for _, key := range keys.SortedKeys() {
		cat := doc.Categories[key]
		if len(cat.Lengths) != len(cat.Counts) {
			result.Errors = append(result.Errors, fmt.Sprintf("Category %s: %d lengths but %d counts", key, len(cat.Lengths), len(cat.Counts)))
			continue
		}
		merged := 0
		for i, l := range cat.Lengths {
			if hasLength(result.Demands[key], l) {
				merged++
			}
			result.Demands.Add(key, l, cat.Counts[i])
			result.Rows++
		}
		if merged > 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Category %s: merged %d duplicate lengths", key, merged))
		}
		if cat.BinCapacity > 0 {
			cd := result.Demands[key]
			cd.BinCapacity = cat.BinCapacity
			result.Demands[key] = cd
		}
	}
	result.BinCapacity = doc.BinCapacity
	return result
}
