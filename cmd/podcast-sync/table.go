package main

import (
	"io"
	"os"
	"strconv"

	"podcast-sync/pkg/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

const maxCellWidth = 60

// episodeColumn is one column of the episode table
type episodeColumn struct {
	header string
	align  text.Align
	cell   func(ep domain.Episode) string
}

var episodeColumns = []episodeColumn{
	{"ID", text.AlignRight, func(ep domain.Episode) string { return strconv.FormatInt(ep.ID, 10) }},
	{"Date", text.AlignLeft, func(ep domain.Episode) string { return ep.CreatedAt.UTC().Format("2006-01-02") }},
	{"Title", text.AlignLeft, func(ep domain.Episode) string { return ep.Title }},
	{"Duration", text.AlignRight, func(ep domain.Episode) string { return ep.DurationFormatted }},
	{"Chapters", text.AlignRight, func(ep domain.Episode) string { return strconv.Itoa(len(ep.Chapters)) }},
	{"Stream", text.AlignLeft, func(ep domain.Episode) string { return presence(ep.StreamURL != nil) }},
	{"Show notes", text.AlignLeft, func(ep domain.Episode) string { return valueOrDash(ep.ShowNotes) }},
}

// renderEpisodes draws episodes as a rounded table, one row per episode in the given order.
func renderEpisodes(episodes []domain.Episode) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(episodeColumns))
	configs := make([]table.ColumnConfig, len(episodeColumns))
	for i, col := range episodeColumns {
		header[i] = col.header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    maxCellWidth,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, ep := range episodes {
		row := make(table.Row, len(episodeColumns))
		for i, col := range episodeColumns {
			row[i] = col.cell(ep)
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

func presence(ok bool) string {
	if ok {
		return "yes"
	}
	return "-"
}

func valueOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
