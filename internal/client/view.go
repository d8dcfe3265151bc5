package client

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/mattn/go-runewidth"

	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

var homeBanner = buildHomeBanner()

func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.viewport.View())
	b.WriteString("\n")

	if a.showHelp && a.helpView != "" {
		b.WriteString(a.styles.help.Render(a.helpView))
		b.WriteString("\n")
	}

	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(a.logLineView())
	b.WriteString("\n")
	b.WriteString(a.statusLine())

	return b.String()
}

func (a *App) updateViewportContent() {
	width := a.viewport.Width
	if width <= 0 {
		width = a.width
	}
	switch a.view {
	case viewHome:
		a.viewport.SetContent(a.renderHomeView())
		a.viewport.GotoTop()
	case viewMaterials:
		a.viewport.SetContent(strings.Join(wrapLines(a.renderMaterialLines(), width), "\n"))
	case viewUsers:
		a.viewport.SetContent(strings.Join(wrapLines(a.renderUserLines(), width), "\n"))
	case viewStats:
		a.viewport.SetContent(a.renderStatsView(width))
	case viewPipe:
		if len(a.pipeHistory) == 0 {
			a.viewport.SetContent("No transport frames captured yet. Send commands to populate this view or use /pipe clear to reset.")
		} else {
			a.viewport.SetContent(a.renderPipeView())
		}
		a.viewport.GotoBottom()
	case viewHelp:
		a.viewport.SetContent(a.renderHelpView())
	}
}

func (a *App) updateViewportSize() {
	if a.height == 0 {
		return
	}
	const fixed = 3
	height := a.height - fixed - a.helpHeight
	if height < 3 {
		height = 3
	}
	a.viewport.Height = height
	a.viewport.Width = a.width
}

func (a *App) updateInputWidth() {
	width := a.width
	if width <= 0 {
		width = 60
	}
	promptWidth := lipgloss.Width(a.input.Prompt)
	usable := width - promptWidth - 1
	if usable < 10 {
		usable = 10
	}
	a.input.Width = usable
}

func (a *App) updateHelp() {
	value := a.input.Value()
	if value == "" || !strings.HasPrefix(value, string(a.cfg.CommandPrefix)) {
		a.showHelp = false
		a.helpView = ""
		a.helpHeight = 0
		return
	}

	token := value
	if idx := strings.IndexAny(value, " \t"); idx >= 0 {
		token = value[:idx]
	}

	bindings := a.matchingBindings(token)
	if len(bindings) == 0 {
		a.showHelp = false
		a.helpView = ""
		a.helpHeight = 0
		return
	}

	a.showHelp = true
	a.helper.Width = a.width
	view := a.helper.View(dynamicKeyMap{keys: bindings})
	view = strings.TrimRight(view, "\n")
	a.helpView = view
	a.helpHeight = countLines(view)
}

func (a *App) matchingBindings(prefix string) []key.Binding {
	prefix = "/" + strings.TrimPrefix(strings.ToLower(prefix), string(a.cfg.CommandPrefix))
	var bindings []key.Binding
	for _, c := range a.commands {
		if !strings.HasPrefix(c.trigger, prefix) {
			continue
		}
		usage := c.usage
		if len(c.options) > 0 {
			usage += " [" + strings.Join(c.options, " ") + "]"
		}
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(c.trigger),
			key.WithHelp(usage, c.description),
		))
	}
	return bindings
}

func (a *App) statusLine() string {
	status := "OFFLINE"
	if a.statusOnline {
		status = "ONLINE"
	}
	user := "-"
	role := "-"
	if a.account != nil {
		user = a.account.Name
		role = string(a.account.Role())
	}

	parts := []string{
		a.styles.title.Render("StudyShelf"),
		a.styles.view.Render(strings.ToUpper(a.view.String())),
		a.statusValueStyle(status).Render(status),
		a.styles.label.Render("Server") + ": " + a.styles.value.Render(a.serverAddr),
		a.styles.label.Render("User") + ": " + a.styles.value.Render(user),
		a.styles.label.Render("Role") + ": " + a.styles.value.Render(role),
	}

	return strings.Join(parts, " | ")
}

func (a *App) statusValueStyle(status string) lipgloss.Style {
	if strings.EqualFold(status, "ONLINE") {
		return a.styles.statusOnline
	}
	return a.styles.statusOffline
}

func (a *App) logLineView() string {
	labelStyle := a.styles.logLabel
	bodyStyle := a.styles.logBody
	if a.logLine.level == logLevelError {
		labelStyle = a.styles.logLabelError
		bodyStyle = a.styles.logBodyError
	}
	return labelStyle.Render(a.logLine.label) + " " + bodyStyle.Render(a.logLine.body)
}

func buildStyles() styleSet {
	base := lipgloss.NewStyle()
	return styleSet{
		title:         base.Foreground(lipgloss.Color("13")).Bold(true),
		view:          base.Foreground(lipgloss.Color("14")).Bold(true),
		statusOnline:  base.Foreground(lipgloss.Color("10")).Bold(true),
		statusOffline: base.Foreground(lipgloss.Color("9")).Bold(true),
		label:         base.Foreground(lipgloss.Color("8")),
		value:         base.Foreground(lipgloss.Color("15")),
		logLabel:      base.Foreground(lipgloss.Color("11")).Bold(true),
		logBody:       base.Foreground(lipgloss.Color("7")),
		logLabelError: base.Foreground(lipgloss.Color("9")).Bold(true),
		logBodyError:  base.Foreground(lipgloss.Color("9")),
		help:          base.Foreground(lipgloss.Color("12")),
		pending:       base.Foreground(lipgloss.Color("11")),
		liked:         base.Foreground(lipgloss.Color("13")),
		header:        base.Foreground(lipgloss.Color("14")).Bold(true).Underline(true),
	}
}

func (a *App) renderHomeView() string {
	info := []string{
		"Use /connect to reach the portal server.",
		"Use /login <email> <password> [student|admin] or /signup after connecting.",
		"Use /browse branch=CSE sem=\"Sem 3\" type=Notes to find materials.",
		"Use /upload <path> title=\"...\" to share a file (2 MB max).",
		"Use /like and /download with a material id.",
		"Use /help to browse all commands.",
	}

	var b strings.Builder
	b.WriteString(homeBanner)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(info, "\n"))
	if a.vocabulary != nil {
		b.WriteString("\n\n")
		b.WriteString(a.styles.header.Render("Branches"))
		b.WriteString("\n")
		for _, branch := range a.vocabulary.Branches {
			b.WriteString(fmt.Sprintf("  %-5s %s\n", branch.Value, branch.Label))
		}
		b.WriteString(a.styles.label.Render("Years: ") + strings.Join(a.vocabulary.Years, ", ") + "\n")
		b.WriteString(a.styles.label.Render("Semesters: ") + strings.Join(a.vocabulary.Semesters, ", ") + "\n")
		b.WriteString(a.styles.label.Render("Types: ") + strings.Join(a.vocabulary.ResourceTypes, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderMaterialLines() []string {
	title := a.listTitle
	if title == "" {
		title = "Materials"
	}
	lines := []string{a.styles.header.Render(title), ""}
	if len(a.materials) == 0 {
		return append(lines, "No materials found. Try clearing filters.")
	}
	for _, m := range a.materials {
		lines = append(lines, a.formatMaterial(m), "")
	}
	return lines[:len(lines)-1]
}

func (a *App) formatMaterial(m protocol.MaterialSummary) string {
	heart := "♡"
	if m.Liked {
		heart = a.styles.liked.Render("♥")
	}
	state := ""
	if !m.IsApproved {
		state = " " + a.styles.pending.Render("[PENDING]")
	}
	created := time.Unix(m.CreatedAt, 0).Local().Format("2006-01-02")
	header := fmt.Sprintf("[%s] %s%s", m.ID, m.Title, state)
	meta := fmt.Sprintf("    %s | %s | %s | %s | %s | %s", m.Subject, m.Branch, m.Year, m.Semester, m.Type, m.Size)
	counters := fmt.Sprintf("    %s %d  ⬇ %d  by %s on %s", heart, m.Likes, m.Downloads, m.UploaderName, created)
	lines := []string{header, meta, counters}
	if d := strings.TrimSpace(m.Description); d != "" {
		lines = append(lines, "    "+d)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderUserLines() []string {
	lines := []string{a.styles.header.Render("Accounts"), ""}
	if len(a.users) == 0 {
		return append(lines, "No accounts.")
	}
	for _, u := range a.users {
		detail := string(u.Role())
		if student, ok := u.Student(); ok {
			detail = fmt.Sprintf("%s %s %s", detail, student.Branch, student.Year)
		}
		marker := ""
		if a.account != nil && a.account.ID == u.ID {
			marker = " (you)"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s <%s> %s%s", u.ID, u.Name, u.Email, detail, marker))
	}
	return lines
}

func (a *App) renderStatsView(width int) string {
	if a.stats == nil {
		return "No statistics loaded. Use /stats."
	}
	s := a.stats
	var b strings.Builder
	b.WriteString(a.styles.header.Render("Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Total users:     %d\n", s.TotalUsers))
	b.WriteString(fmt.Sprintf("Total files:     %d\n", s.TotalFiles))
	b.WriteString(fmt.Sprintf("Total downloads: %d\n", s.TotalDownloads))
	b.WriteString(fmt.Sprintf("Pending:         %d\n\n", s.Pending))
	b.WriteString(a.styles.header.Render("Uploads by branch"))
	b.WriteString("\n")

	maxCount := 0
	for _, c := range s.ByBranch {
		maxCount = max(maxCount, c.Count)
	}
	barWidth := max(width-20, 10)
	for _, c := range s.ByBranch {
		bar := 0
		if maxCount > 0 {
			bar = c.Count * barWidth / maxCount
		}
		b.WriteString(fmt.Sprintf("%-5s %3d %s\n", c.Branch, c.Count, strings.Repeat("█", bar)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderHelpView() string {
	var b strings.Builder
	b.WriteString("StudyShelf Commands\n\n")
	for _, c := range a.commands {
		b.WriteString(fmt.Sprintf("%-44s %s\n", c.usage, c.description))
		if len(c.options) > 0 {
			b.WriteString(fmt.Sprintf("%-44s options: %s\n", "", strings.Join(c.options, " ")))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderPipeView() string {
	var b strings.Builder
	for i, entry := range a.pipeHistory {
		ts := entry.timestamp.Format("15:04:05.000")
		kind := strings.ToUpper(entry.messageType)
		if kind == "" {
			kind = "UNKNOWN"
		}
		header := fmt.Sprintf("[%s %s %s]", ts, entry.direction, kind)
		b.WriteString(a.styles.label.Render(header))
		b.WriteString("\n")
		b.WriteString(entry.body)
		if i < len(a.pipeHistory)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func buildHomeBanner() string {
	fig := figure.NewColorFigure("STUDY SHELF", "small", "green", true)
	return strings.TrimRight(fig.String(), "\n")
}

func wrapLines(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	const minWidth = 10
	if width < minWidth {
		width = minWidth
	}

	wrapped := make([]string, 0, len(lines))
	for _, block := range lines {
		for _, line := range strings.Split(block, "\n") {
			segment := line
			if segment == "" {
				wrapped = append(wrapped, "")
				continue
			}
			for len(segment) > 0 {
				if lipgloss.Width(segment) <= width {
					wrapped = append(wrapped, segment)
					break
				}
				cut := wrapCutIndex(segment, width)
				part := strings.TrimRight(segment[:cut], " ")
				if part == "" && cut > 0 {
					part = segment[:cut]
				}
				wrapped = append(wrapped, part)
				segment = strings.TrimLeft(segment[cut:], " ")
			}
		}
	}
	return wrapped
}

func wrapCutIndex(s string, limit int) int {
	var width int
	lastSpace := -1
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if width+rw > limit {
			if lastSpace >= 0 {
				return lastSpace + 1
			}
			if width == 0 {
				return i + len(string(r))
			}
			return i
		}
		width += rw
		if unicode.IsSpace(r) {
			lastSpace = i
		}
	}
	return len(s)
}

type dynamicKeyMap struct {
	keys []key.Binding
}

func (d dynamicKeyMap) ShortHelp() []key.Binding {
	return d.keys
}

func (d dynamicKeyMap) FullHelp() [][]key.Binding {
	if len(d.keys) == 0 {
		return [][]key.Binding{}
	}
	return [][]key.Binding{d.keys}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
