package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/torosent/httpbatch/internal/metrics"
)

const (
	summarySheet = "Summary"
	resultsSheet = "Results"
)

var resultColumns = []struct {
	header string
	width  float64
}{
	{"#", 6},
	{"Name", 28},
	{"Method", 10},
	{"URL", 48},
	{"Status", 10},
	{"Status Text", 22},
	{"Success", 10},
	{"Response Time (ms)", 20},
	{"Error", 48},
	{"Response Body", 60},
}

// GenerateXLSXReport writes a workbook with a Summary sheet and a Results
// sheet holding one row per result. Failed rows are highlighted.
func GenerateXLSXReport(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	// A new workbook starts with "Sheet1".
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, r); err != nil {
		return err
	}

	if _, err := f.NewSheet(resultsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeResultsSheet(f, r.Summary.Results); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, r Report) error {
	rows := [][]interface{}{
		{"Run ID", r.RunID},
		{"Source", r.Source},
		{"Timeout (s)", r.Timeout.Seconds()},
		{"Total", r.Summary.Total},
		{"Success", r.Summary.Success},
		{"Failed", r.Summary.Failed},
		{"Success Rate (%)", r.Summary.SuccessRate},
		{"Duration (ms)", r.Stats.DurationMs},
		{"Min Latency (ms)", r.Stats.MinLatencyMs},
		{"Mean Latency (ms)", r.Stats.MeanLatencyMs},
		{"P50 Latency (ms)", r.Stats.P50LatencyMs},
		{"P90 Latency (ms)", r.Stats.P90LatencyMs},
		{"P95 Latency (ms)", r.Stats.P95LatencyMs},
		{"P99 Latency (ms)", r.Stats.P99LatencyMs},
		{"Max Latency (ms)", r.Stats.MaxLatencyMs},
	}
	for _, t := range r.Thresholds {
		status := "PASS"
		if !t.Pass {
			status = "FAIL"
		}
		rows = append(rows, []interface{}{t.Threshold.Raw, fmt.Sprintf("%s (actual %.2f)", status, t.Actual)})
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 40); err != nil {
		return err
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeResultsSheet(f *excelize.File, results []metrics.RequestResult) error {
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	failedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	})
	if err != nil {
		return err
	}

	for i, col := range resultColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(resultsSheet, name, name, col.width); err != nil {
			return err
		}
		if err := f.SetCellValue(resultsSheet, name+"1", col.header); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(resultColumns))
	if err := f.SetCellStyle(resultsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, res := range results {
		row := i + 2
		var status interface{}
		if res.HasStatus() {
			status = res.Status()
		}
		values := []interface{}{
			i + 1,
			res.Name,
			res.Method,
			res.URL,
			status,
			derefString(res.StatusText),
			res.Success,
			res.ResponseTimeMs,
			res.ErrorText(),
			string(res.ResponseBody),
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return fmt.Errorf("write result row: %w", err)
		}
		if !res.Success {
			if err := f.SetCellStyle(resultsSheet, cell, fmt.Sprintf("%s%d", lastCol, row), failedStyle); err != nil {
				return err
			}
		}
	}
	return nil
}
