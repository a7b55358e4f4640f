// Package export renders entries to Markdown and HTML and bundles them with
// their attachments. Rendering never fails on dangling attachment ids.
package export

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

const missingTarget = "(missing)"

// ToMarkdown renders blocks separated by blank lines. Attachment links
// resolve through exportPathByID, then the attachment's storage path.
func ToMarkdown(blocks []models.Block, attachmentsByID map[string]models.Attachment, exportPathByID map[string]string) string {
	sections := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := blockMarkdown(b, attachmentsByID, exportPathByID); s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n\n")
}

func blockMarkdown(b models.Block, atts map[string]models.Attachment, paths map[string]string) string {
	switch p := b.Payload.(type) {
	case models.Heading:
		level := min(max(p.Level, 1), 6)
		return strings.Repeat("#", level) + " " + inlineMarkdown(p.Text, p.Runs)
	case models.Paragraph:
		return inlineMarkdown(p.Text, p.Runs)
	case models.Quote:
		lines := strings.Split(inlineMarkdown(p.Text, p.Runs), "\n")
		for i, l := range lines {
			lines[i] = "> " + l
		}
		return strings.Join(lines, "\n")
	case models.Checklist:
		lines := make([]string, 0, len(p.Items))
		for _, it := range p.Items {
			box := "[ ]"
			if it.Done {
				box = "[x]"
			}
			line := "- " + box + " " + inlineMarkdown(it.Text, it.Runs)
			if it.TimerMinutes != nil {
				line += fmt.Sprintf(" (%d min)", *it.TimerMinutes)
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	case models.Table:
		return tableMarkdown(p)
	case models.Image:
		target, ok := resolve(p.AttachmentID, atts, paths)
		alt := p.Caption
		if alt == "" {
			alt = attachmentName(p.AttachmentID, atts, "image")
		}
		if !ok {
			return fmt.Sprintf("![%s] %s", alt, missingTarget)
		}
		return fmt.Sprintf("![%s](%s)", alt, target)
	case models.File:
		target, ok := resolve(p.AttachmentID, atts, paths)
		label := p.Label
		if label == "" {
			label = attachmentName(p.AttachmentID, atts, "file")
		}
		if !ok {
			return fmt.Sprintf("[%s] %s", label, missingTarget)
		}
		return fmt.Sprintf("[%s](%s)", label, target)
	case models.Divider:
		return "---"
	default:
		return ""
	}
}

func resolve(id string, atts map[string]models.Attachment, paths map[string]string) (string, bool) {
	if p, ok := paths[id]; ok && p != "" {
		return p, true
	}
	if a, ok := atts[id]; ok && a.StoragePath != "" {
		return a.StoragePath, true
	}
	return "", false
}

func attachmentName(id string, atts map[string]models.Attachment, fallback string) string {
	if a, ok := atts[id]; ok && a.Filename != "" {
		return a.Filename
	}
	return fallback
}

func inlineMarkdown(text string, runs []models.Run) string {
	if len(runs) == 0 || !models.RunsMatch(text, runs) {
		return text
	}
	var sb strings.Builder
	for _, r := range runs {
		s := r.Text
		if strings.TrimSpace(s) == "" {
			sb.WriteString(s)
			continue
		}
		if r.Underline {
			s = "<u>" + s + "</u>"
		}
		if r.Italic {
			s = "_" + s + "_"
		}
		if r.Bold {
			s = "**" + s + "**"
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func tableMarkdown(t models.Table) string {
	cols := 0
	for _, row := range t.Data {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}

	rows := t.Data
	var header []string
	if t.HeaderRow {
		header = rows[0]
		rows = rows[1:]
	} else {
		for i := range cols {
			header = append(header, fmt.Sprintf("Column %d", i+1))
		}
	}

	var sb strings.Builder
	sb.WriteString(tableRow(header, cols))
	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("\n" + tableRow(sep, cols))
	for _, row := range rows {
		sb.WriteString("\n" + tableRow(row, cols))
	}
	if t.Caption != "" {
		sb.WriteString("\n\n_" + t.Caption + "_")
	}
	return sb.String()
}

func tableRow(cells []string, cols int) string {
	out := make([]string, cols)
	for i := range cols {
		if i < len(cells) {
			out[i] = strings.ReplaceAll(strings.ReplaceAll(cells[i], "|", `\|`), "\n", " ")
		}
	}
	return "| " + strings.Join(out, " | ") + " |"
}
