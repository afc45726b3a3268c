package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prhealth/internal/forge"
	"prhealth/internal/model"
	"prhealth/internal/router"
)

type dashboardMode int

const (
	dashboardNormal dashboardMode = iota
	dashboardDeleteConfirm
	dashboardRemoveConfirm
	dashboardAssign
)

type dashboardFocus int

const (
	focusPRs dashboardFocus = iota
	focusMembers
)

const maxColumnWidth = 40

// — messages ————————————————————————————————————————————————————————————————

type projectInfoMsg struct {
	scoped
	seq      int
	projects []model.Project
	err      error
}

type prsLoadedMsg struct {
	scoped
	seq int
	prs []model.PullRequest
	err error
}

type summaryLoadedMsg struct {
	scoped
	seq     int
	summary model.PRSummary
	err     error
}

type membersLoadedMsg struct {
	scoped
	seq     int
	members []model.Member
	err     error
}

type techLeadsLoadedMsg struct {
	scoped
	seq   int
	users []model.User
	err   error
}

type projectDeletedMsg struct {
	scoped
	err error
}

type memberChangedMsg struct {
	scoped
	verb string // "assigned" | "removed"
	name string
	err  error
}

// — list item ———————————————————————————————————————————————————————————————

type userItem struct {
	u model.User
}

func (i userItem) Title() string       { return i.u.Name }
func (i userItem) Description() string { return i.u.Email }
func (i userItem) FilterValue() string { return i.u.Name + " " + i.u.Email }

// — model ———————————————————————————————————————————————————————————————————

type dashboardScreen struct {
	base
	projectID int

	projects  remote[[]model.Project]
	prs       remote[[]model.PullRequest]
	summary   remote[model.PRSummary]
	members   remote[[]model.Member]
	techLeads remote[[]model.User]

	mode      dashboardMode
	focus     dashboardFocus
	table     table.Model
	columns   []string
	memberIdx int
	picker    list.Model
	busy      bool
	status    string
}

func newDashboardScreen(b base, projectID int) *dashboardScreen {
	t := table.New(table.WithFocused(true), table.WithHeight(10))
	t.SetStyles(table.DefaultStyles())

	picker := list.New(nil, list.NewDefaultDelegate(), 50, 14)
	picker.Title = "Assign a tech lead"
	picker.SetShowStatusBar(false)
	picker.SetShowHelp(false)
	picker.Styles.Title = titleStyle

	return &dashboardScreen{base: b, projectID: projectID, table: t, picker: picker}
}

func (s *dashboardScreen) Init() tea.Cmd { return s.refreshAll() }

func (s *dashboardScreen) Capturing() bool {
	return s.mode == dashboardAssign && s.picker.FilterState() == list.Filtering
}

func (s *dashboardScreen) refreshAll() tea.Cmd {
	cmds := []tea.Cmd{s.fetchProject(), s.fetchPRs(), s.fetchSummary(), s.fetchMembers()}
	// only admins can list tech leads; the list feeds the assign picker
	if s.isAdmin() {
		cmds = append(cmds, s.fetchTechLeads())
	}
	return tea.Batch(cmds...)
}

func (s *dashboardScreen) fetchProject() tea.Cmd {
	seq := s.projects.begin()
	ctx, backend, scope := s.ctx, s.backend, s.scope()
	return func() tea.Msg {
		projects, err := backend.ListProjects(ctx)
		return projectInfoMsg{scoped: scope, seq: seq, projects: projects, err: err}
	}
}

func (s *dashboardScreen) fetchPRs() tea.Cmd {
	seq := s.prs.begin()
	ctx, backend, scope, id := s.ctx, s.backend, s.scope(), s.projectID
	return func() tea.Msg {
		prs, err := backend.ListPullRequests(ctx, id)
		return prsLoadedMsg{scoped: scope, seq: seq, prs: prs, err: err}
	}
}

func (s *dashboardScreen) fetchSummary() tea.Cmd {
	seq := s.summary.begin()
	ctx, backend, scope, id := s.ctx, s.backend, s.scope(), s.projectID
	return func() tea.Msg {
		sum, err := backend.PullRequestSummary(ctx, id)
		return summaryLoadedMsg{scoped: scope, seq: seq, summary: sum, err: err}
	}
}

func (s *dashboardScreen) fetchMembers() tea.Cmd {
	seq := s.members.begin()
	ctx, backend, scope, id := s.ctx, s.backend, s.scope(), s.projectID
	return func() tea.Msg {
		members, err := backend.ListMembers(ctx, id)
		return membersLoadedMsg{scoped: scope, seq: seq, members: members, err: err}
	}
}

func (s *dashboardScreen) fetchTechLeads() tea.Cmd {
	seq := s.techLeads.begin()
	ctx, backend, scope := s.ctx, s.backend, s.scope()
	return func() tea.Msg {
		users, err := backend.ListTechLeads(ctx)
		return techLeadsLoadedMsg{scoped: scope, seq: seq, users: users, err: err}
	}
}

// project returns the dashboard's project from the fetched list.
func (s *dashboardScreen) project() (model.Project, bool) {
	for _, p := range s.projects.value {
		if p.ID == s.projectID {
			return p, true
		}
	}
	return model.Project{}, false
}

// assignable is computed on every render from the two fetched sets.
func (s *dashboardScreen) assignable() []model.User {
	return model.AssignableUsers(s.techLeads.value, s.members.value)
}

func (s *dashboardScreen) selectedMember() (model.Member, bool) {
	m := s.members.value
	if s.memberIdx < 0 || s.memberIdx >= len(m) {
		return model.Member{}, false
	}
	return m[s.memberIdx], true
}

func (s *dashboardScreen) selectedPR() (model.PullRequest, bool) {
	prs := s.prs.value
	idx := s.table.Cursor()
	if idx < 0 || idx >= len(prs) {
		return model.PullRequest{}, false
	}
	return prs[idx], true
}

// prCells renders one row; stale rows carry a marker in the days column.
func prCells(pr model.PullRequest, cols []string) []string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = pr.Cell(c)
		if c == "days_open" && pr.IsStale() {
			cells[i] += " ⚠ stale"
		}
	}
	return cells
}

func columnTitle(c string) string {
	return strings.ToUpper(strings.ReplaceAll(c, "_", " "))
}

func (s *dashboardScreen) rebuildTable() {
	prs := s.prs.value
	cols := model.Columns(prs)

	widths := make([]int, len(cols))
	rows := make([]table.Row, len(prs))
	for i, c := range cols {
		widths[i] = lipgloss.Width(columnTitle(c))
	}
	for r, pr := range prs {
		cells := prCells(pr, cols)
		for i, cell := range cells {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
		rows[r] = cells
	}

	columns := make([]table.Column, len(cols))
	for i, c := range cols {
		columns[i] = table.Column{Title: columnTitle(c), Width: min(widths[i], maxColumnWidth)}
	}

	// rows go first so the viewport never renders rows wider than the columns
	s.table.SetRows(nil)
	s.table.SetColumns(columns)
	s.table.SetRows(rows)
	s.columns = cols
}

func (s *dashboardScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg)
		s.table.SetHeight(max(s.height-14, 5))
		return s, nil

	case projectInfoMsg:
		if s.projects.resolve(msg.seq, msg.projects, msg.err) && msg.err != nil {
			return s, s.failed("dashboard", "project", msg.err)
		}
		return s, nil

	case prsLoadedMsg:
		if !s.prs.resolve(msg.seq, msg.prs, msg.err) {
			return s, nil
		}
		if msg.err != nil {
			return s, s.failed("dashboard", "pull-requests", msg.err)
		}
		s.rebuildTable()
		return s, nil

	case summaryLoadedMsg:
		if s.summary.resolve(msg.seq, msg.summary, msg.err) && msg.err != nil {
			return s, s.failed("dashboard", "summary", msg.err)
		}
		return s, nil

	case membersLoadedMsg:
		if !s.members.resolve(msg.seq, msg.members, msg.err) {
			return s, nil
		}
		if msg.err != nil {
			return s, s.failed("dashboard", "members", msg.err)
		}
		if s.memberIdx >= len(s.members.value) {
			s.memberIdx = max(len(s.members.value)-1, 0)
		}
		return s, nil

	case techLeadsLoadedMsg:
		if s.techLeads.resolve(msg.seq, msg.users, msg.err) && msg.err != nil {
			return s, s.failed("dashboard", "tech-leads", msg.err)
		}
		return s, nil

	case projectDeletedMsg:
		s.busy = false
		s.mode = dashboardNormal
		if msg.err != nil {
			s.status = "Failed to delete project: " + errText(msg.err)
			return s, s.failed("dashboard", "delete-project", msg.err)
		}
		return s, navigate(router.PathProjects, "Project deleted successfully")

	case memberChangedMsg:
		s.busy = false
		s.mode = dashboardNormal
		if msg.err != nil {
			verb := "assign"
			if msg.verb == "removed" {
				verb = "remove"
			}
			s.status = fmt.Sprintf("Failed to %s %s: %s", verb, msg.name, errText(msg.err))
			return s, s.failed("dashboard", verb+"-member", msg.err)
		}
		s.status = fmt.Sprintf("%s %s", msg.name, msg.verb)
		return s, s.fetchMembers()

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch s.mode {
		case dashboardDeleteConfirm:
			return s.updateDeleteConfirm(msg)
		case dashboardRemoveConfirm:
			return s.updateRemoveConfirm(msg)
		case dashboardAssign:
			return s.updateAssign(msg)
		default:
			return s.updateNormal(msg)
		}
	}

	if s.mode == dashboardAssign {
		var cmd tea.Cmd
		s.picker, cmd = s.picker.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *dashboardScreen) updateNormal(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "esc", "b", "backspace":
		return s, navigate(router.PathProjects, "")
	case "r":
		s.status = ""
		return s, s.refreshAll()
	case "tab":
		if s.focus == focusPRs {
			s.focus = focusMembers
			s.table.Blur()
		} else {
			s.focus = focusPRs
			s.table.Focus()
		}
		return s, nil
	case "o":
		if pr, ok := s.selectedPR(); ok && pr.URL != "" {
			return s, openURLCmd(pr.URL)
		}
		return s, nil
	case "d":
		if s.isAdmin() {
			s.mode = dashboardDeleteConfirm
			s.status = ""
		}
		return s, nil
	case "a":
		if !s.isAdmin() {
			return s, nil
		}
		candidates := s.assignable()
		if len(candidates) == 0 {
			s.status = "No tech leads left to assign"
			return s, nil
		}
		items := make([]list.Item, len(candidates))
		for i, u := range candidates {
			items[i] = userItem{u: u}
		}
		s.picker.SetItems(items)
		s.picker.ResetSelected()
		s.mode = dashboardAssign
		s.status = ""
		return s, nil
	case "x":
		if s.isAdmin() && s.focus == focusMembers {
			if _, ok := s.selectedMember(); ok {
				s.mode = dashboardRemoveConfirm
				s.status = ""
			}
		}
		return s, nil
	}

	if s.focus == focusMembers {
		switch msg.String() {
		case "up", "k":
			if s.memberIdx > 0 {
				s.memberIdx--
			}
		case "down", "j":
			if s.memberIdx < len(s.members.value)-1 {
				s.memberIdx++
			}
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return s, cmd
}

func (s *dashboardScreen) updateDeleteConfirm(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "esc", "n", "N":
		s.mode = dashboardNormal
		return s, nil
	case "enter", "y", "Y":
		s.busy = true
		ctx, backend, scope, id := s.ctx, s.backend, s.scope(), s.projectID
		return s, func() tea.Msg {
			return projectDeletedMsg{scoped: scope, err: backend.DeleteProject(ctx, id)}
		}
	}
	return s, nil
}

func (s *dashboardScreen) updateRemoveConfirm(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "esc", "n", "N":
		s.mode = dashboardNormal
		return s, nil
	case "enter", "y", "Y":
		member, ok := s.selectedMember()
		if !ok {
			s.mode = dashboardNormal
			return s, nil
		}
		s.busy = true
		ctx, backend, scope, id := s.ctx, s.backend, s.scope(), s.projectID
		return s, func() tea.Msg {
			err := backend.RemoveMember(ctx, id, member.ID)
			return memberChangedMsg{scoped: scope, verb: "removed", name: member.Name, err: err}
		}
	}
	return s, nil
}

func (s *dashboardScreen) updateAssign(msg tea.KeyMsg) (screen, tea.Cmd) {
	if s.picker.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc":
			s.mode = dashboardNormal
			return s, nil
		case "enter":
			item, ok := s.picker.SelectedItem().(userItem)
			if !ok {
				return s, nil
			}
			s.busy = true
			ctx, backend, scope, id := s.ctx, s.backend, s.scope(), s.projectID
			return s, func() tea.Msg {
				err := backend.AssignMember(ctx, id, item.u.ID)
				return memberChangedMsg{scoped: scope, verb: "assigned", name: item.u.Name, err: err}
			}
		}
	}
	var cmd tea.Cmd
	s.picker, cmd = s.picker.Update(msg)
	return s, cmd
}

func (s *dashboardScreen) Help() string {
	switch s.mode {
	case dashboardDeleteConfirm, dashboardRemoveConfirm:
		return "y/Enter confirm   n/Esc cancel"
	case dashboardAssign:
		return "↑/↓ choose   / filter   Enter assign   Esc cancel"
	}
	text := "↑/↓ navigate   Tab switch pane   o open PR   r refresh   Esc back"
	if s.isAdmin() {
		text += "   a assign   x remove member   d delete project"
	}
	return text
}

// — view ————————————————————————————————————————————————————————————————————

func (s *dashboardScreen) View() string {
	var b strings.Builder
	b.WriteString(s.renderHeader() + "\n\n")
	b.WriteString(s.renderSummary() + "\n\n")

	prPane := s.renderPRs()
	memberPane := s.renderMembers()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, prPane, "   ", memberPane))

	if s.status != "" {
		style := okStyle
		if strings.HasPrefix(s.status, "Failed") || strings.HasPrefix(s.status, "No ") {
			style = warnStyle
		}
		b.WriteString("\n\n" + style.Render(s.status))
	}

	switch s.mode {
	case dashboardDeleteConfirm:
		return overlay(s.width, s.height, s.renderDeleteConfirm())
	case dashboardRemoveConfirm:
		return overlay(s.width, s.height, s.renderRemoveConfirm())
	case dashboardAssign:
		return overlay(s.width, s.height, modalStyle.Render(s.picker.View()))
	}
	return b.String()
}

func (s *dashboardScreen) renderHeader() string {
	p, ok := s.project()
	if !ok {
		return titleStyle.Render(fmt.Sprintf("Project #%d", s.projectID)) + "  " + dimStyle.Render("Open Pull Requests")
	}
	head := titleStyle.Render(p.Name)
	if repo, err := forge.Parse(p.RepoURL); err == nil {
		head += "  " + dimStyle.Render(repo.Slug())
	}
	return head + "  " + dimStyle.Render("Open Pull Requests")
}

func (s *dashboardScreen) renderSummary() string {
	if s.summary.state == loadIdle || (s.summary.loading() && s.summary.value == (model.PRSummary{})) {
		return dimStyle.Render("Loading summary…")
	}
	sum := s.summary.value
	stale := okStyle.Render(fmt.Sprintf("%d", sum.StaleCount))
	if sum.StaleCount > 0 {
		stale = errStyle.Render(fmt.Sprintf("%d", sum.StaleCount))
	}
	line := labelStyle.Render("Open ") + fmt.Sprintf("%d", sum.TotalOpen) +
		labelStyle.Render("   Stale ") + stale +
		labelStyle.Render("   Avg days open ") + fmt.Sprintf("%.1f", sum.AverageDaysOpen) +
		labelStyle.Render("   Oldest ") + fmt.Sprintf("%dd", sum.OldestDays)
	if s.summary.failed() {
		line += "  " + warnStyle.Render("(summary unavailable: "+errText(s.summary.err)+")")
	}
	return line
}

func (s *dashboardScreen) renderPRs() string {
	var b strings.Builder
	switch {
	case s.prs.loading() && len(s.prs.value) == 0:
		b.WriteString(dimStyle.Render("Loading pull requests…"))
	case len(s.prs.value) == 0:
		if s.prs.failed() {
			b.WriteString(errStyle.Render("Could not load pull requests: "+errText(s.prs.err)) + "\n")
		}
		b.WriteString(dimStyle.Render("No open pull requests"))
	default:
		if s.prs.failed() {
			b.WriteString(warnStyle.Render("Showing last loaded rows: "+errText(s.prs.err)) + "\n")
		}
		b.WriteString(s.table.View())
	}
	return b.String()
}

func (s *dashboardScreen) renderMembers() string {
	var b strings.Builder
	head := boldStyle.Render("Members")
	if s.focus == focusMembers {
		head = titleStyle.Render("Members")
	}
	b.WriteString(head + "\n")
	if s.members.failed() {
		b.WriteString(warnStyle.Render(errText(s.members.err)) + "\n")
	}
	if len(s.members.value) == 0 {
		if s.members.loading() {
			b.WriteString(dimStyle.Render("Loading…"))
		} else {
			b.WriteString(dimStyle.Render("No members"))
		}
		return b.String()
	}
	for i, m := range s.members.value {
		cursor := "  "
		if s.focus == focusMembers && i == s.memberIdx {
			cursor = "> "
		}
		b.WriteString(cursor + m.Name + " " + dimStyle.Render(m.Email) + "\n")
	}
	return b.String()
}

func (s *dashboardScreen) renderDeleteConfirm() string {
	var b strings.Builder
	b.WriteString(errStyle.Render("Delete Project") + "\n\n")
	if p, ok := s.project(); ok {
		b.WriteString(labelStyle.Render("Name     ") + p.Name + "\n")
		b.WriteString(labelStyle.Render("Repo     ") + p.RepoURL + "\n\n")
	}
	b.WriteString("Are you sure you want to delete this project?\nThis cannot be undone.\n")
	if s.busy {
		b.WriteString("\n" + dimStyle.Render("Deleting…") + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("y/Enter to confirm · Esc/n to cancel"))
	return deleteModalStyle.Render(b.String())
}

func (s *dashboardScreen) renderRemoveConfirm() string {
	var b strings.Builder
	b.WriteString(errStyle.Render("Remove Member") + "\n\n")
	if m, ok := s.selectedMember(); ok {
		b.WriteString(labelStyle.Render("Name     ") + m.Name + "\n")
		b.WriteString(labelStyle.Render("Email    ") + m.Email + "\n\n")
	}
	b.WriteString("Remove this tech lead from the project?\n")
	b.WriteString("\n" + dimStyle.Render("y/Enter to confirm · Esc/n to cancel"))
	return deleteModalStyle.Render(b.String())
}
