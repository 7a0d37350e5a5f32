package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/sync"
)

// PublishAction represents the action chosen in the publish picker.
type PublishAction int

const (
	// PublishActionNone means the user quit without publishing.
	PublishActionNone PublishAction = iota
	// PublishActionPublish means the user confirmed the selection.
	PublishActionPublish
)

// PublishPickerResult contains the result of the publish picker interaction.
type PublishPickerResult struct {
	Action   PublishAction
	Selected []sync.Candidate
}

type publishPickerKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	Confirm   key.Binding
	Filter    key.Binding
	ClearFlt  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultPublishPickerKeyMap() publishPickerKeyMap {
	return publishPickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "tab"),
			key.WithHelp("space/tab", "toggle"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "publish selected"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearFlt: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// PublishPickerModel is the BubbleTea model for choosing which local skills
// to publish during a sync.
type PublishPickerModel struct {
	table        table.Model
	candidates   []sync.Candidate
	filtered     []sync.Candidate
	selected     map[string]bool // slug -> selected
	keys         publishPickerKeyMap
	result       PublishPickerResult
	filter       string
	filtering    bool
	showHelp     bool
	width        int
	quitting     bool
	columnWidths publishPickerColumnWidths
}

var publishPickerStyles = struct {
	Title       lipgloss.Style
	Help        lipgloss.Style
	Filter      lipgloss.Style
	FilterInput lipgloss.Style
	Status      lipgloss.Style
	DetailBox   lipgloss.Style
	DetailTitle lipgloss.Style
}{
	Title:       Styles.Title,
	Help:        Styles.Help,
	Filter:      Styles.Accent,
	FilterInput: Styles.Selected,
	Status:      Styles.Muted,
	DetailBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	DetailTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
}

const (
	publishPickerCheckboxWidth = 3
	publishPickerSlugWidth     = 24
	publishPickerStatusWidth   = 8
	publishPickerVersionWidth  = 20
	publishPickerFolderWidth   = 30
	publishPickerColumnPadding = 2
	publishPickerColumnCount   = 5
	publishPickerDetailLines   = 2
	publishPickerDetailHeight  = publishPickerDetailLines + 1 + 2 // title + content + border
)

type publishPickerColumnWidths struct {
	slug    int
	status  int
	version int
	folder  int
}

func publishPickerColumns(totalWidth int) ([]table.Column, publishPickerColumnWidths) {
	widths := publishPickerColumnWidths{
		slug:    publishPickerSlugWidth,
		status:  publishPickerStatusWidth,
		version: publishPickerVersionWidth,
		folder:  publishPickerFolderWidth,
	}

	if totalWidth > 0 {
		baseTotal := publishPickerCheckboxWidth + widths.slug + widths.status + widths.version + widths.folder +
			(publishPickerColumnPadding * publishPickerColumnCount)
		if extra := totalWidth - baseTotal; extra > 0 {
			slugExtra := extra / 3
			widths.slug += slugExtra
			widths.folder += extra - slugExtra
		}
	}

	columns := []table.Column{
		{Title: " ", Width: publishPickerCheckboxWidth},
		{Title: "Skill", Width: widths.slug},
		{Title: "Status", Width: widths.status},
		{Title: "Version", Width: widths.version},
		{Title: "Folder", Width: widths.folder},
	}
	return columns, widths
}

// NewPublishPickerModel creates a picker over the given candidates. Every
// candidate starts selected.
func NewPublishPickerModel(candidates []sync.Candidate) PublishPickerModel {
	columns, widths := publishPickerColumns(0)

	selected := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		selected[c.Bundle.Slug] = true
	}

	m := PublishPickerModel{
		candidates:   candidates,
		filtered:     candidates,
		selected:     selected,
		keys:         defaultPublishPickerKeyMap(),
		columnWidths: widths,
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.candidatesToRows(candidates)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m.table = t
	return m
}

func candidateStatus(c sync.Candidate) string {
	if c.Classification == model.ClassificationNew {
		return "NEW"
	}
	return "update"
}

func candidateVersion(c sync.Candidate) string {
	if c.LatestVersion == "" {
		return c.NextVersion
	}
	return c.LatestVersion + " → " + c.NextVersion
}

func (m PublishPickerModel) candidatesToRows(candidates []sync.Candidate) []table.Row {
	rows := make([]table.Row, len(candidates))
	for i, c := range candidates {
		checkbox := "[ ]"
		if m.selected[c.Bundle.Slug] {
			checkbox = "[x]"
		}
		rows[i] = table.Row{
			checkbox,
			truncateText(c.Bundle.Slug, m.columnWidths.slug),
			candidateStatus(c),
			truncateText(candidateVersion(c), m.columnWidths.version),
			truncateText(c.Bundle.Folder, m.columnWidths.folder),
		}
	}
	return rows
}

// Init implements tea.Model.
func (m PublishPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PublishPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(msg.Height-8-publishPickerDetailHeight, 5))
		columns, widths := publishPickerColumns(msg.Width)
		m.columnWidths = widths
		m.table.SetColumns(columns)
		m.table.SetRows(m.candidatesToRows(m.filtered))

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg), nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.result = PublishPickerResult{Action: PublishActionNone}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			return m, nil

		case key.Matches(msg, m.keys.ClearFlt):
			m.filter = ""
			m.applyFilter()
			return m, nil

		case key.Matches(msg, m.keys.Toggle):
			if c, ok := m.current(); ok {
				m.selected[c.Bundle.Slug] = !m.selected[c.Bundle.Slug]
				m.table.SetRows(m.candidatesToRows(m.filtered))
			}
			return m, nil

		case key.Matches(msg, m.keys.ToggleAll):
			selectedCount := 0
			for _, c := range m.filtered {
				if m.selected[c.Bundle.Slug] {
					selectedCount++
				}
			}
			selectAll := selectedCount < len(m.filtered)
			for _, c := range m.filtered {
				m.selected[c.Bundle.Slug] = selectAll
			}
			m.table.SetRows(m.candidatesToRows(m.filtered))
			return m, nil

		case key.Matches(msg, m.keys.Confirm):
			m.result = PublishPickerResult{
				Action:   PublishActionPublish,
				Selected: m.Selected(),
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m PublishPickerModel) updateFilter(msg tea.KeyMsg) PublishPickerModel {
	switch msg.String() {
	case "enter":
		m.filtering = false
	case "esc":
		m.filter = ""
		m.filtering = false
		m.applyFilter()
	case "backspace":
		if len(m.filter) > 0 {
			m.filter = m.filter[:len(m.filter)-1]
			m.applyFilter()
		}
	default:
		if len(msg.String()) == 1 {
			m.filter += msg.String()
			m.applyFilter()
		}
	}
	return m
}

func (m *PublishPickerModel) applyFilter() {
	if m.filter == "" {
		m.filtered = m.candidates
	} else {
		var filtered []sync.Candidate
		lowerFilter := strings.ToLower(m.filter)
		for _, c := range m.candidates {
			if strings.Contains(strings.ToLower(c.Bundle.Slug), lowerFilter) ||
				strings.Contains(strings.ToLower(c.Bundle.DisplayName), lowerFilter) ||
				strings.Contains(strings.ToLower(c.Bundle.Summary), lowerFilter) {
				filtered = append(filtered, c)
			}
		}
		m.filtered = filtered
	}
	m.table.SetRows(m.candidatesToRows(m.filtered))
}

func (m PublishPickerModel) current() (sync.Candidate, bool) {
	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(m.filtered) {
		return m.filtered[cursor], true
	}
	return sync.Candidate{}, false
}

// Selected returns the currently selected candidates in their original order,
// including ones hidden by the filter.
func (m PublishPickerModel) Selected() []sync.Candidate {
	var selected []sync.Candidate
	for _, c := range m.candidates {
		if m.selected[c.Bundle.Slug] {
			selected = append(selected, c)
		}
	}
	return selected
}

// Result returns the result of the user interaction.
func (m PublishPickerModel) Result() PublishPickerResult {
	return m.result
}

// View implements tea.Model.
func (m PublishPickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(publishPickerStyles.Title.Render("Select skills to publish"))
	b.WriteString("\n\n")

	if m.filter != "" || m.filtering {
		filterVal := publishPickerStyles.FilterInput.Render(m.filter)
		if m.filtering {
			filterVal += "█"
		}
		b.WriteString(publishPickerStyles.Filter.Render("Filter: ") + filterVal + "\n\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.renderDetailPanel())
	b.WriteString("\n")

	status := fmt.Sprintf("%d of %d skill(s) selected", len(m.Selected()), len(m.candidates))
	if m.filter != "" {
		status += fmt.Sprintf(", %d shown (filtered)", len(m.filtered))
	}
	b.WriteString(publishPickerStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		keys := []string{
			"↑/↓ navigate",
			"space toggle",
			"a toggle all",
			"enter publish",
			"/ filter",
			"? help",
			"q quit",
		}
		b.WriteString(publishPickerStyles.Help.Render(strings.Join(keys, " • ")))
	}

	return b.String()
}

func (m PublishPickerModel) renderDetailPanel() string {
	width := m.width
	if width <= 0 {
		width = publishPickerCheckboxWidth + m.columnWidths.slug + m.columnWidths.status +
			m.columnWidths.version + m.columnWidths.folder + (publishPickerColumnPadding * publishPickerColumnCount)
	}
	contentWidth := max(width-4, 10)

	summary := "No summary available."
	title := "Summary"
	if c, ok := m.current(); ok {
		title = c.Bundle.DisplayName
		if s := strings.TrimSpace(c.Bundle.Summary); s != "" {
			summary = s
		}
	}

	lines := padLines(wrapText(summary, contentWidth, publishPickerDetailLines), publishPickerDetailLines)
	content := append([]string{publishPickerStyles.DetailTitle.Render(title)}, lines...)
	return publishPickerStyles.DetailBox.Width(width).Render(strings.Join(content, "\n"))
}

func (m PublishPickerModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down
  g/Home   Go to top
  G/End    Go to bottom

Selection:
  Space/Tab  Toggle current skill
  a          Select or clear all shown skills

Actions:
  Enter    Publish selected skills

Filter:
  /        Start filtering (by slug, name, or summary)
  Esc      Clear filter

General:
  ?        Toggle full help
  q        Quit without publishing`
	return publishPickerStyles.Help.Render(help)
}

// RunPublishPicker runs the interactive publish picker and returns the result.
func RunPublishPicker(candidates []sync.Candidate) (PublishPickerResult, error) {
	if len(candidates) == 0 {
		return PublishPickerResult{}, nil
	}

	finalModel, err := Run(NewPublishPickerModel(candidates))
	if err != nil {
		return PublishPickerResult{}, err
	}

	if m, ok := finalModel.(PublishPickerModel); ok {
		return m.Result(), nil
	}
	return PublishPickerResult{}, nil
}
