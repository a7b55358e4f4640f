package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{- range .Entries}}
<article id="entry-{{.ID}}">
<h1>{{.Title}}</h1>
<p class="meta">{{.DateBucket}}</p>
{{- range .Blocks}}
{{.}}
{{- end}}
</article>
{{- end}}
</body>
</html>
`))

type htmlEntry struct {
	ID         string
	Title      string
	DateBucket string
	Blocks     []template.HTML
}

// ToHTMLDocument renders entries into one standalone HTML page.
func ToHTMLDocument(entries []models.Entry, attachmentsByID map[string]models.Attachment, exportPathByID map[string]string) (string, error) {
	data := struct {
		Title   string
		Entries []htmlEntry
	}{Title: "Lab notebook export"}
	if len(entries) == 1 {
		data.Title = entries[0].Title
	}

	for _, e := range entries {
		he := htmlEntry{ID: e.ID, Title: e.Title, DateBucket: e.DateBucket}
		for _, b := range e.Content {
			if s := blockHTML(b, attachmentsByID, exportPathByID); s != "" {
				he.Blocks = append(he.Blocks, template.HTML(s))
			}
		}
		data.Entries = append(data.Entries, he)
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// blockHTML returns an escaped fragment for one block.
func blockHTML(b models.Block, atts map[string]models.Attachment, paths map[string]string) string {
	esc := template.HTMLEscapeString
	style := ""
	if b.Align != "" && b.Align != models.AlignLeft {
		style = fmt.Sprintf(` style="text-align:%s"`, b.Align)
	}

	switch p := b.Payload.(type) {
	case models.Heading:
		// h1 is the entry title
		level := min(max(p.Level, 1)+1, 6)
		return fmt.Sprintf("<h%d%s>%s</h%d>", level, style, inlineHTML(p.Text, p.Runs), level)
	case models.Paragraph:
		return fmt.Sprintf("<p%s>%s</p>", style, inlineHTML(p.Text, p.Runs))
	case models.Quote:
		return fmt.Sprintf("<blockquote%s>%s</blockquote>", style, inlineHTML(p.Text, p.Runs))
	case models.Checklist:
		var sb strings.Builder
		sb.WriteString(`<ul class="checklist">`)
		for _, it := range p.Items {
			checked := ""
			if it.Done {
				checked = " checked"
			}
			fmt.Fprintf(&sb, `<li><input type="checkbox" disabled%s> %s</li>`, checked, inlineHTML(it.Text, it.Runs))
		}
		sb.WriteString("</ul>")
		return sb.String()
	case models.Table:
		return tableHTML(p)
	case models.Image:
		target, ok := resolve(p.AttachmentID, atts, paths)
		if !ok {
			return fmt.Sprintf(`<p class="missing">%s %s</p>`, esc(attachmentName(p.AttachmentID, atts, "image")), missingTarget)
		}
		out := fmt.Sprintf(`<figure%s><img src="%s" alt="%s">`, style, esc(target), esc(p.Caption))
		if p.Caption != "" {
			out += "<figcaption>" + esc(p.Caption) + "</figcaption>"
		}
		return out + "</figure>"
	case models.File:
		label := p.Label
		if label == "" {
			label = attachmentName(p.AttachmentID, atts, "file")
		}
		target, ok := resolve(p.AttachmentID, atts, paths)
		if !ok {
			return fmt.Sprintf(`<p class="missing">%s %s</p>`, esc(label), missingTarget)
		}
		return fmt.Sprintf(`<p><a href="%s">%s</a></p>`, esc(target), esc(label))
	case models.Divider:
		return "<hr>"
	default:
		return ""
	}
}

func inlineHTML(text string, runs []models.Run) string {
	if len(runs) == 0 || !models.RunsMatch(text, runs) {
		return template.HTMLEscapeString(text)
	}
	var sb strings.Builder
	for _, r := range runs {
		s := template.HTMLEscapeString(r.Text)
		if r.Underline {
			s = "<u>" + s + "</u>"
		}
		if r.Italic {
			s = "<em>" + s + "</em>"
		}
		if r.Bold {
			s = "<strong>" + s + "</strong>"
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func tableHTML(t models.Table) string {
	if len(t.Data) == 0 {
		return ""
	}
	esc := template.HTMLEscapeString

	var sb strings.Builder
	sb.WriteString("<table>")
	if t.Caption != "" {
		sb.WriteString("<caption>" + esc(t.Caption) + "</caption>")
	}
	rows := t.Data
	if t.HeaderRow {
		sb.WriteString("<thead><tr>")
		for _, c := range rows[0] {
			sb.WriteString("<th>" + esc(c) + "</th>")
		}
		sb.WriteString("</tr></thead>")
		rows = rows[1:]
	}
	sb.WriteString("<tbody>")
	for _, row := range rows {
		sb.WriteString("<tr>")
		for _, c := range row {
			sb.WriteString("<td>" + esc(c) + "</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}
