package validation

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Colors for the report chart series.
const (
	warningColor = "#e6a23c"
	errorColor   = "#f56c6c"
)

// buildSummaryChart renders per-phase warning and error counts as a grouped
// bar chart.
func buildSummaryChart(summary *Summary) *charts.Bar {
	labels := make([]string, 0, len(summary.Results))
	warningData := make([]opts.BarData, 0, len(summary.Results))
	errorData := make([]opts.BarData, 0, len(summary.Results))

	for _, result := range summary.Results {
		labels = append(labels, result.Phase)
		warningData = append(warningData, opts.BarData{Value: result.Warnings})
		errorData = append(errorData, opts.BarData{Value: result.Errors})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Pipeline Validation",
			Subtitle: "Warnings and errors recorded per phase",
		}),
		charts.WithLegendOpts(opts.Legend{Bottom: "0"}),
	)

	bar.SetXAxis(labels)
	bar.AddSeries("Warnings", warningData,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: warningColor}))
	bar.AddSeries("Errors", errorData,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: errorColor}))

	return bar
}

// RenderReport writes an HTML report for the run to path: the per-phase
// warning/error chart, self-contained in one file.
func (s *Summary) RenderReport(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer file.Close()

	err = buildSummaryChart(s).Render(file)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}
