// Package excel materializes the append log into an xlsx workbook with a
// Data sheet and a Chart sheet carrying one line series per channel.
package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ramorimdias/cwtlogger/internal/domain"
	"github.com/ramorimdias/cwtlogger/internal/ports"
)

const (
	dataSheet    = "Data"
	chartSheet   = "Chart"
	timeLayout   = "2006-01-02 15:04:05"
	firstDataCol = 3 // column C holds CH1
)

// Exporter implements ports.Exporter on an xlsx workbook.
type Exporter struct{}

// New returns a ready Exporter.
func New() *Exporter { return &Exporter{} }

// Export writes the workbook for the log's current rows to target. The row
// count is snapshotted first, so appends racing the export land in the next
// one; the workbook is staged in a temp file and renamed over target, so a
// failed export never leaves a torn artifact at the pointer path.
//
// Cell policy matches the log's reading states: the time column is text,
// rel_h and resistances are numeric, and non-finite readings (absent, open
// circuit) are left as empty cells so the chart draws gaps instead of spikes.
func (e *Exporter) Export(ctx context.Context, log ports.SampleLog, target string) error {
	rows := log.Rows()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("data sheet: %w", err)
	}
	if _, err := f.NewSheet(chartSheet); err != nil {
		return fmt.Errorf("chart sheet: %w", err)
	}

	if err := writeData(ctx, f, log, rows); err != nil {
		return err
	}
	if err := addChart(f, rows); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("target dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".export-*.xlsx")
	if err != nil {
		return fmt.Errorf("temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	if err := f.SaveAs(tmpName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

func writeData(ctx context.Context, f *excelize.File, log ports.SampleLog, rows int) error {
	sw, err := f.NewStreamWriter(dataSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, 0, 2+domain.NumChannels)
	header = append(header, "time", "rel_h")
	for ch := 1; ch <= domain.NumChannels; ch++ {
		header = append(header, domain.ChannelLabel(ch))
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("header row: %w", err)
	}

	row := 2
	err = log.Scan(rows, func(s domain.Sample) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := make([]interface{}, 0, 2+domain.NumChannels)
		cells = append(cells, s.Time.Format(timeLayout), s.RelHours)
		for _, v := range s.Readings {
			if domain.Finite(v) {
				cells = append(cells, v)
			} else {
				cells = append(cells, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
		row++
		return nil
	})
	if err != nil {
		return fmt.Errorf("data rows: %w", err)
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush data: %w", err)
	}
	return nil
}

func addChart(f *excelize.File, rows int) error {
	lastRow := rows + 1 // data starts under the header at row 1
	series := make([]excelize.ChartSeries, 0, domain.NumChannels)
	for ch := 1; ch <= domain.NumChannels; ch++ {
		col, err := excelize.ColumnNumberToName(firstDataCol + ch - 1)
		if err != nil {
			return fmt.Errorf("series column: %w", err)
		}
		series = append(series, excelize.ChartSeries{
			Name:       domain.ChannelLabel(ch),
			Categories: fmt.Sprintf("%s!$B$2:$B$%d", dataSheet, lastRow),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", dataSheet, col, col, lastRow),
		})
	}
	err := f.AddChart(chartSheet, "B2", &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Hours from start"}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "R (Ω)"}}},
		Format: excelize.GraphicOptions{ScaleX: 1.5, ScaleY: 1.3},
	})
	if err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	return nil
}
