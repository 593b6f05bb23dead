package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"codelens/internal/analysis"
	"codelens/internal/types"
)

var dimensionMax = []struct {
	name string
	max  float64
	get  func(types.Breakdown) float64
}{
	{"completeness", 20, func(b types.Breakdown) float64 { return b.Completeness }},
	{"specificity", 20, func(b types.Breakdown) float64 { return b.Specificity }},
	{"quantification", 25, func(b types.Breakdown) float64 { return b.Quantification }},
	{"actionability", 20, func(b types.Breakdown) float64 { return b.Actionability }},
	{"consistency", 15, func(b types.Breakdown) float64 { return b.Consistency }},
}

func renderResult(w io.Writer, res *analysis.Result) {
	p := res.Profile
	fmt.Fprintf(w, "Analysis %s  (%s, %s files, %s, %s)\n",
		res.ID, p.Complexity, humanize.Comma(int64(p.TotalFiles)), p.PrimaryLanguage, p.Architecture)
	if res.Cached {
		fmt.Fprintln(w, color.CyanString("served from cache"))
	}
	if res.OmittedFiles > 0 {
		fmt.Fprintln(w, color.YellowString("%d files did not fit the context budget", res.OmittedFiles))
	}
	fmt.Fprintf(w, "Attempts: %d\n\n", res.Attempts)

	r := res.Report
	if r != nil {
		fmt.Fprintln(w, r.Summary)
		fmt.Fprintln(w)
		renderFindings(w, "Hotspots", r.Hotspots)
		if len(r.Bottlenecks) > 0 {
			renderFindings(w, "Bottlenecks", r.Bottlenecks)
		}
		if strings.TrimSpace(r.CodeExample) != "" {
			fmt.Fprintln(w, color.New(color.Bold).Sprint("Code example"))
			fmt.Fprintln(w, r.CodeExample)
			fmt.Fprintln(w)
		}
	}
	renderMetrics(w, res.Metrics)
}

func renderFindings(w io.Writer, title string, fs []types.Finding) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.AppendHeader(table.Row{"#", "Severity", "Title", "Location", "Impact"})
	for i, f := range fs {
		tbl.AppendRow(table.Row{i + 1, f.Severity, f.Title, f.Location, f.Impact})
	}
	tbl.Render()
	fmt.Fprintln(w)
}

func renderMetrics(w io.Writer, m types.QualityMetrics) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Dimension", "Score", "Max"})
	for _, d := range dimensionMax {
		tbl.AppendRow(table.Row{d.name, fmt.Sprintf("%.1f", d.get(m.Breakdown)), fmt.Sprintf("%.0f", d.max)})
	}
	tbl.AppendFooter(table.Row{"overall", fmt.Sprintf("%.1f", m.OverallScore), "100"})
	tbl.Render()

	verdict := color.GreenString("PASS")
	if !m.PassesThreshold {
		verdict = color.RedString("FAIL")
	}
	fmt.Fprintf(w, "\nQuality: %s (%.1f/100)\n", verdict, m.OverallScore)

	for _, is := range m.Issues {
		mark := color.YellowString("warn")
		switch is.Severity {
		case types.SeverityCritical:
			mark = color.RedString("crit")
		case types.SeverityInfo:
			mark = color.BlueString("info")
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", mark, is.Category, is.Message)
	}
	if len(m.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range m.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}
