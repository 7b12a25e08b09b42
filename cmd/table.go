package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"dataset-indexer/internal/scanner"
)

func renderPairs(pairs []scanner.Pair) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Audio", "Transcript"})
	for i, p := range pairs {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), p.AudioPath, p.Transcript})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 60},
	})
	return tw.Render()
}
