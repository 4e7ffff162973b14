package main

import (
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/youruser/promoapp/internal/pipeline"
)

func renderSummary(report *pipeline.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("run " + report.RunID)
	tw.AppendHeader(table.Row{"Group", "Step", "Status", "Output", "Reason"})

	for _, res := range report.Results {
		output := ""
		if res.Output != "" {
			output = filepath.Base(res.Output)
		}
		tw.AppendRow(table.Row{res.Group, string(res.Step), string(res.Status), output, res.Reason})
	}
	tw.AppendFooter(table.Row{"", "", "written", report.Written(), ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
	})
	return tw.Render()
}
