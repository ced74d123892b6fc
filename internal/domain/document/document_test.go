package document

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPath_PreservesSiblings(t *testing.T) {
	doc := Document{
		"a": map[string]any{"x": 1},
	}

	doc = doc.SetPath([]string{"b", "y"}, 2)

	assert.Equal(t, map[string]any{"x": 1}, doc["a"])
	assert.Equal(t, map[string]any{"y": 2}, doc["b"])
}

func TestSetPath_MergesIntoExistingSection(t *testing.T) {
	doc := Document{
		"general": map[string]any{"summary": "old", "contact": "a@b.c"},
	}

	doc = doc.SetPath([]string{"general", "summary"}, "new")

	sec := doc.Section("general")
	assert.Equal(t, "new", sec["summary"])
	assert.Equal(t, "a@b.c", sec["contact"])
}

func TestSetPath_AllocatesNilDocument(t *testing.T) {
	var doc Document

	doc = doc.SetPath([]string{"general", "summary"}, "v")

	require.NotNil(t, doc)
	assert.Equal(t, "v", doc.Section("general")["summary"])
}

func TestSetPath_ReplacesNonMapIntermediate(t *testing.T) {
	doc := Document{"general": "scalar"}

	doc = doc.SetPath([]string{"general", "summary"}, "v")

	assert.Equal(t, "v", doc.Section("general")["summary"])
}

func TestScan_RoundTrip(t *testing.T) {
	src := Document{
		"general": map[string]any{"count": 3, "name": "x"},
	}
	raw, err := src.Value()
	require.NoError(t, err)

	var dst Document
	require.NoError(t, dst.Scan(raw))

	// Numbers come back as json.Number, not float64.
	sec := dst.Section("general")
	assert.Equal(t, json.Number("3"), sec["count"])
	assert.Equal(t, "x", sec["name"])
}

func TestScan_Nil(t *testing.T) {
	var doc Document
	require.NoError(t, doc.Scan(nil))
	assert.Nil(t, doc)
}

func TestValue_NilIsNull(t *testing.T) {
	var doc Document
	v, err := doc.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRowsAndCellString(t *testing.T) {
	doc := Document{
		"planning": map[string]any{
			"milestones": []any{
				map[string]any{"title": "alpha", "due": "2026-01-01"},
				map[string]any{"title": "beta"},
			},
		},
	}

	assert.Len(t, doc.Rows("planning", "milestones"), 2)
	assert.Equal(t, "alpha", doc.CellString("planning", "milestones", 0, "title"))
	assert.Equal(t, "", doc.CellString("planning", "milestones", 1, "due"))

	// Out-of-range rows and absent sections read as empty, never panic.
	assert.Equal(t, "", doc.CellString("planning", "milestones", 5, "title"))
	assert.Equal(t, "", doc.CellString("missing", "milestones", 0, "title"))
	assert.Equal(t, "", Document(nil).CellString("planning", "milestones", 0, "title"))
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"number", json.Number("42"), "42"},
		{"bool", true, "true"},
		{"int", 7, "7"},

		// Numeric cells are normalized, not echoed as raw JSON text.
		{"trailing zeros", json.Number("1.50"), "1.5"},
		{"exponent form", json.Number("1e3"), "1000"},
		{"float64", 2.5, "2.5"},
		{"unparseable number text", json.Number("not-a-number"), "not-a-number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}

func TestDecimal(t *testing.T) {
	dec, ok := Decimal(json.Number("12.340"))
	require.True(t, ok)
	assert.True(t, dec.Equal(decimal.RequireFromString("12.34")))

	// json.Number keeps the full precision a float64 round trip would lose.
	dec, ok = Decimal(json.Number("9007199254740993"))
	require.True(t, ok)
	assert.Equal(t, "9007199254740993", dec.String())

	_, ok = Decimal(json.Number("garbage"))
	assert.False(t, ok)
	_, ok = Decimal("12.34")
	assert.False(t, ok)
	_, ok = Decimal(nil)
	assert.False(t, ok)
}
