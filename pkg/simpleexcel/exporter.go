package simpleexcel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Types
// =============================================================================

// DataExporter renders a ReportTemplate with data bound per section ID.
type DataExporter struct {
	template *ReportTemplate
	data     map[string]interface{}
}

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate represents a sheet in the YAML.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig defines a block of rows in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Locked      bool           `yaml:"locked"`
	ShowHeader  bool           `yaml:"show_header"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig maps a struct field to a column.
type ColumnConfig struct {
	FieldName string  `yaml:"field_name"`
	Header    string  `yaml:"header"`
	Width     float64 `yaml:"width"`
	// Format is an excelize number format id, 0 keeps the default.
	Format int `yaml:"format"`
}

type StyleTemplate struct {
	Font *FontTemplate `yaml:"font"`
	Fill *FillTemplate `yaml:"fill"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // Hex color
}

type FillTemplate struct {
	Color string `yaml:"color"` // Hex color
}

// =============================================================================
// Constructors
// =============================================================================

func NewDataExporter(tmpl *ReportTemplate) *DataExporter {
	return &DataExporter{template: tmpl, data: make(map[string]interface{})}
}

// NewDataExporterFromYamlConfig parses a YAML report layout.
func NewDataExporterFromYamlConfig(config string) (*DataExporter, error) {
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(config), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(tmpl.Sheets) == 0 {
		return nil, fmt.Errorf("report layout has no sheets")
	}
	return NewDataExporter(&tmpl), nil
}

func NewDataExporterFromYamlFile(path string) (*DataExporter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open yaml file: %w", err)
	}
	return NewDataExporterFromYamlConfig(string(raw))
}

// BindSectionData binds a slice of structs to a section ID.
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// =============================================================================
// Output
// =============================================================================

// BuildExcel creates the workbook in memory. The caller closes it.
func (e *DataExporter) BuildExcel() (*excelize.File, error) {
	f := excelize.NewFile()

	for i, sheet := range e.template.Sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			f.Close()
			return nil, err
		}

		if err := e.renderSections(f, sheet.Name, sheet.Sections); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// ToBytes exports the workbook to an in-memory byte slice.
func (e *DataExporter) ToBytes() ([]byte, error) {
	f, err := e.BuildExcel()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToCSV writes the sections of the first sheet as CSV, a header record when
// show_header is set and then one record per item. Titles are skipped.
func (e *DataExporter) ToCSV(w io.Writer) error {
	if len(e.template.Sheets) == 0 {
		return fmt.Errorf("no sheets found")
	}

	csvWriter := csv.NewWriter(w)
	for _, sec := range e.template.Sheets[0].Sections {
		if sec.ShowHeader {
			headers := make([]string, len(sec.Columns))
			for i, col := range sec.Columns {
				headers[i] = col.Header
			}
			if err := csvWriter.Write(headers); err != nil {
				return fmt.Errorf("error writing CSV header: %w", err)
			}
		}

		err := e.eachRow(sec, func(row []interface{}) error {
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = csvValue(v)
			}
			return csvWriter.Write(record)
		})
		if err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// =============================================================================
// Rendering Logic
// =============================================================================

func (e *DataExporter) renderSections(f *excelize.File, sheet string, sections []SectionConfig) error {
	currentRow := 1
	hasLockedSections := false

	for _, sec := range sections {
		if sec.Locked {
			hasLockedSections = true
		}
		// Locked=false only matters once the sheet is protected
		locked := sec.Locked

		if sec.Title != "" {
			cell, _ := excelize.CoordinatesToCellName(1, currentRow)
			if err := f.SetCellValue(sheet, cell, sec.Title); err != nil {
				return err
			}
			styleID, err := createStyle(f, sec.TitleStyle, locked, 0)
			if err != nil {
				return err
			}
			endCell := cell
			if len(sec.Columns) > 1 {
				endCell, _ = excelize.CoordinatesToCellName(len(sec.Columns), currentRow)
				if err := f.MergeCell(sheet, cell, endCell); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet, cell, endCell, styleID); err != nil {
				return err
			}
			currentRow++
		}

		if sec.ShowHeader {
			styleID, err := createStyle(f, sec.HeaderStyle, locked, 0)
			if err != nil {
				return err
			}
			for i, col := range sec.Columns {
				cell, _ := excelize.CoordinatesToCellName(1+i, currentRow)
				if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return err
				}
				if col.Width > 0 {
					colName, _ := excelize.ColumnNumberToName(1 + i)
					if err := f.SetColWidth(sheet, colName, colName, col.Width); err != nil {
						return err
					}
				}
			}
			currentRow++
		}

		columnStyles := make([]int, len(sec.Columns))
		for i, col := range sec.Columns {
			styleID, err := createStyle(f, nil, locked, col.Format)
			if err != nil {
				return err
			}
			columnStyles[i] = styleID
		}

		err := e.eachRow(sec, func(row []interface{}) error {
			for j, val := range row {
				cell, _ := excelize.CoordinatesToCellName(1+j, currentRow)
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, columnStyles[j]); err != nil {
					return err
				}
			}
			currentRow++
			return nil
		})
		if err != nil {
			return err
		}

		// blank row between sections
		currentRow++
	}

	if hasLockedSections {
		return f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
			SelectLockedCells:   true,
			SelectUnlockedCells: true,
		})
	}
	return nil
}

// eachRow calls fn with the column values of every item bound to sec.
func (e *DataExporter) eachRow(sec SectionConfig, fn func([]interface{}) error) error {
	data, ok := e.data[sec.ID]
	if !ok || data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("section %q: expected a slice, got %v", sec.ID, v.Kind())
	}

	for i := 0; i < v.Len(); i++ {
		row := make([]interface{}, len(sec.Columns))
		for j, col := range sec.Columns {
			row[j] = extractValue(v.Index(i), col.FieldName)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// extractValue reads fieldName from a struct or map item. Nil pointers become
// empty cells and fmt.Stringer values other than time.Time are written as
// their string form.
func extractValue(item reflect.Value, fieldName string) interface{} {
	for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
		if item.IsNil() {
			return ""
		}
		item = item.Elem()
	}

	var field reflect.Value
	switch item.Kind() {
	case reflect.Struct:
		field = item.FieldByName(fieldName)
	case reflect.Map:
		if item.Type().Key().Kind() == reflect.String {
			field = item.MapIndex(reflect.ValueOf(fieldName).Convert(item.Type().Key()))
		}
	}
	if !field.IsValid() {
		return ""
	}

	for field.Kind() == reflect.Ptr || field.Kind() == reflect.Interface {
		if field.IsNil() {
			return ""
		}
		field = field.Elem()
	}
	if !field.CanInterface() {
		return ""
	}

	val := field.Interface()
	if _, isTime := val.(time.Time); isTime {
		return val
	}
	if s, ok := val.(fmt.Stringer); ok {
		return s.String()
	}
	return val
}

func csvValue(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

func createStyle(f *excelize.File, tmpl *StyleTemplate, locked bool, numFmt int) (int, error) {
	style := &excelize.Style{
		Protection: &excelize.Protection{Locked: locked},
		NumFmt:     numFmt,
	}
	if tmpl != nil && tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl != nil && tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	return f.NewStyle(style)
}
