package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/client/syncqueue"
	"github.com/dustin/go-humanize"
)

const (
	colorGreen  = "#acfab4"
	colorYellow = "#ffcb6b"
	colorRed    = "#e61f44"
	colorBlue   = "#89ddff"
	colorGray   = "#7a7f94"
)

var (
	badgeStyles = map[string]lipgloss.Style{
		string(syncqueue.IndicatorSynced):  lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		string(syncqueue.IndicatorSyncing): lipgloss.NewStyle().Foreground(lipgloss.Color(colorBlue)).Bold(true),
		string(syncqueue.IndicatorPending): lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		string(syncqueue.IndicatorFailed):  lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)).Bold(true),
		string(ModeOnline):                 lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		string(ModeOffline):                lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		string(ModeDisabled):               lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorBlue))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))
)

// badge renders a status word, colored when styled is set.
func badge(word string, styled bool) string {
	if !styled {
		return word
	}
	if st, ok := badgeStyles[word]; ok {
		return st.Render(word)
	}
	return word
}

// statusLine is the REPL prompt status: connectivity plus the queue
// indicator and the counts behind it.
func statusLine(mode Mode, sum syncqueue.Summary, styled bool) string {
	var sb strings.Builder
	sb.WriteString("(" + badge(string(mode), styled) + " ")
	sb.WriteString(badge(string(sum.Indicator), styled))
	if n := sum.Pending + sum.Failed; n > 0 {
		fmt.Fprintf(&sb, " %dp/%df", sum.Pending, sum.Failed)
	}
	sb.WriteString(")")
	return sb.String()
}

// formatQueue renders queue items one per line, most recent first.
func formatQueue(items []models.ChangeQueueItem, now time.Time, styled bool) string {
	if len(items) == 0 {
		return "Queue is empty"
	}

	var sb strings.Builder
	header := fmt.Sprintf("%-10s %-8s %-10s %-4s %-16s %s", "CHANGE", "STATUS", "ENTRY", "TRY", "LAST TRIED", "BLOCKS")
	if styled {
		header = headerStyle.Render(header)
	}
	sb.WriteString(header)

	for _, it := range items {
		tried := "never"
		if it.LastTriedAt != nil {
			tried = humanize.RelTime(*it.LastTriedAt, now, "ago", "from now")
		}
		status := fmt.Sprintf("%-8s", it.Status)
		if styled {
			status = badge(string(it.Status), true) + strings.Repeat(" ", max(0, 8-len(it.Status)))
		}
		fmt.Fprintf(&sb, "\n%-10s %s %-10s %-4d %-16s %s",
			short(it.ID), status, short(it.EntryID), it.Attempts, tried, strings.Join(shortAll(it.Blocks), ","))
		if it.LastError != "" {
			line := "    " + it.LastError
			if styled {
				line = dimStyle.Render(line)
			}
			sb.WriteString("\n" + line)
		}
	}
	return sb.String()
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = short(id)
	}
	return out
}
