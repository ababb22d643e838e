package simpleexcel

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testLayout = `
sheets:
  - name: "Staff"
    sections:
      - id: "staff"
        title: "Staff list"
        show_header: true
        header_style:
          font:
            bold: true
            color: "#FFFFFF"
          fill:
            color: "#4F81BD"
        columns:
          - field_name: "Code"
            header: "Code"
            width: 12
          - field_name: "Name"
            header: "Name"
          - field_name: "Rate"
            header: "Rate"
            format: 2
  - name: "Summary"
    sections:
      - id: "summary"
        locked: true
        columns:
          - field_name: "Total"
            header: "Total"
`

type label string

func (l label) String() string { return "<" + string(l) + ">" }

type staffRow struct {
	Code string
	Name label
	Rate *float64
}

func TestDataExporter_BuildExcel(t *testing.T) {
	exporter, err := NewDataExporterFromYamlConfig(testLayout)
	require.NoError(t, err)

	rate := 12.5
	exporter.
		BindSectionData("staff", []staffRow{{Code: "T1", Name: "Ann", Rate: &rate}, {Code: "T2", Name: "Bob"}}).
		BindSectionData("summary", []map[string]interface{}{{"Total": 2}})

	f, err := exporter.BuildExcel()
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Staff", "Summary"}, f.GetSheetList())

	cells := map[string]string{
		"A1": "Staff list",
		"A2": "Code",
		"B2": "Name",
		"A3": "T1",
		"B3": "<Ann>",
		"A4": "T2",
		"C4": "",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue("Staff", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}

	rateCell, err := f.GetCellValue("Staff", "C3")
	require.NoError(t, err)
	assert.Contains(t, rateCell, "12.5")

	total, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestDataExporter_ToBytes(t *testing.T) {
	exporter, err := NewDataExporterFromYamlConfig(testLayout)
	require.NoError(t, err)
	exporter.BindSectionData("staff", []staffRow{{Code: "T1", Name: "Ann"}})

	raw, err := exporter.ToBytes()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Staff", "A3")
	require.NoError(t, err)
	assert.Equal(t, "T1", got)
}

func TestDataExporter_ToCSV(t *testing.T) {
	exporter, err := NewDataExporterFromYamlConfig(testLayout)
	require.NoError(t, err)
	exporter.BindSectionData("staff", []*staffRow{{Code: "T1", Name: "Ann, Jr"}, nil})

	var buf bytes.Buffer
	require.NoError(t, exporter.ToCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Code,Name,Rate", lines[0])
	assert.Equal(t, `T1,"<Ann, Jr>",`, lines[1])
	assert.Equal(t, ",,", lines[2])
}

func TestDataExporter_Errors(t *testing.T) {
	_, err := NewDataExporterFromYamlConfig("sheets: []")
	assert.Error(t, err)

	_, err = NewDataExporterFromYamlConfig("sheets: [")
	assert.Error(t, err)

	_, err = NewDataExporterFromYamlFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	exporter, err := NewDataExporterFromYamlConfig(testLayout)
	require.NoError(t, err)
	exporter.BindSectionData("staff", staffRow{Code: "T1"})
	_, err = exporter.BuildExcel()
	assert.Error(t, err, "section data must be a slice")
}

func TestNewDataExporterFromYamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLayout), 0o600))

	exporter, err := NewDataExporterFromYamlFile(path)
	require.NoError(t, err)
	assert.Len(t, exporter.template.Sheets, 2)
}
