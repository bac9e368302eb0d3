package pipeline

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/shouni/go-postcraft-kit/pkg/domain"
)

const captionPreviewLen = 48

// renderPostTable は生成結果を一覧表にするのだ。files は posts と同じ順序なのだ。
func renderPostTable(posts []domain.SocialPost, files []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Platform", "Caption", "Image", "File"})

	for i, p := range posts {
		status := "ok"
		if p.Error != "" {
			status = p.Error
		}
		file := ""
		if i < len(files) {
			file = files[i]
		}
		tw.AppendRow(table.Row{i + 1, p.Platform, preview(p.Caption), status, file})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= captionPreviewLen {
		return s
	}
	return string(r[:captionPreviewLen-1]) + "…"
}
