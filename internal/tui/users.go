package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"prhealth/internal/model"
)

type usersMode int

const (
	usersBrowse usersMode = iota
	usersCreate
	usersDeleteConfirm
)

// form field indexes; roleField is a select, not a text input
const (
	nameField = iota
	emailField
	passwordField
	roleField
	fieldCount
)

type usersLoadedMsg struct {
	scoped
	seq   int
	users []model.User
	err   error
}

type userCreatedMsg struct {
	scoped
	user model.User
	err  error
}

type userDeletedMsg struct {
	scoped
	name string
	err  error
}

type usersScreen struct {
	base
	users remote[[]model.User]
	table table.Model
	mode  usersMode

	inputs     [3]textinput.Model
	roleIdx    int
	focus      int
	submitting bool
	formErr    string
	status     string
}

func defaultRoleIdx() int {
	for i, r := range model.Roles {
		if r == model.RoleTechLead {
			return i
		}
	}
	return 0
}

func newUsersScreen(b base) *usersScreen {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "NAME", Width: 20},
			{Title: "EMAIL", Width: 28},
			{Title: "ROLE", Width: 10},
			{Title: "CREATED AT", Width: 17},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(table.DefaultStyles())

	s := &usersScreen{base: b, table: t, roleIdx: defaultRoleIdx()}

	placeholders := [3]string{"Full name", "name@company.com", "Password"}
	for i := range s.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 254
		s.inputs[i] = in
	}
	s.inputs[passwordField].EchoMode = textinput.EchoPassword
	s.inputs[passwordField].EchoCharacter = '•'
	return s
}

func (s *usersScreen) Init() tea.Cmd { return s.refresh() }

func (s *usersScreen) Capturing() bool { return s.mode == usersCreate }

func (s *usersScreen) refresh() tea.Cmd {
	seq := s.users.begin()
	ctx, backend, scope := s.ctx, s.backend, s.scope()
	return func() tea.Msg {
		users, err := backend.ListTechLeads(ctx)
		return usersLoadedMsg{scoped: scope, seq: seq, users: users, err: err}
	}
}

func (s *usersScreen) rebuildTable() {
	rows := make([]table.Row, len(s.users.value))
	for i, u := range s.users.value {
		rows[i] = table.Row{u.Name, u.Email, u.Role.Label(), u.CreatedAt.Display()}
	}
	s.table.SetRows(rows)
}

func (s *usersScreen) selectedUser() (model.User, bool) {
	idx := s.table.Cursor()
	if idx < 0 || idx >= len(s.users.value) {
		return model.User{}, false
	}
	return s.users.value[idx], true
}

func (s *usersScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg)
		s.table.SetHeight(max(s.height-8, 5))
		return s, nil

	case usersLoadedMsg:
		if !s.users.resolve(msg.seq, msg.users, msg.err) {
			return s, nil
		}
		if msg.err != nil {
			return s, s.failed("users", "list", msg.err)
		}
		s.rebuildTable()
		return s, nil

	case userCreatedMsg:
		s.submitting = false
		if msg.err != nil {
			s.formErr = "Failed to create user: " + errText(msg.err)
			return s, s.failed("users", "create", msg.err)
		}
		s.closeForm()
		s.status = fmt.Sprintf("User %s created", msg.user.Name)
		return s, s.refresh()

	case userDeletedMsg:
		s.submitting = false
		s.mode = usersBrowse
		if msg.err != nil {
			s.status = "Failed to delete user: " + errText(msg.err)
			return s, s.failed("users", "delete", msg.err)
		}
		s.status = fmt.Sprintf("User %s deleted", msg.name)
		return s, s.refresh()

	case tea.KeyMsg:
		switch s.mode {
		case usersCreate:
			return s.updateCreate(msg)
		case usersDeleteConfirm:
			return s.updateDeleteConfirm(msg)
		default:
			return s.updateBrowse(msg)
		}
	}

	if s.mode == usersCreate {
		return s.updateInput(msg)
	}
	return s, nil
}

func (s *usersScreen) updateBrowse(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "r":
		s.status = ""
		return s, s.refresh()
	case "n", "a":
		if s.isAdmin() {
			return s, s.openForm()
		}
		return s, nil
	case "d":
		if _, ok := s.selectedUser(); ok && s.isAdmin() {
			s.mode = usersDeleteConfirm
			s.status = ""
		}
		return s, nil
	}
	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return s, cmd
}

func (s *usersScreen) updateDeleteConfirm(msg tea.KeyMsg) (screen, tea.Cmd) {
	if s.submitting {
		return s, nil
	}
	switch msg.String() {
	case "esc", "n", "N":
		s.mode = usersBrowse
	case "enter", "y", "Y":
		u, ok := s.selectedUser()
		if !ok {
			s.mode = usersBrowse
			return s, nil
		}
		s.submitting = true
		ctx, backend, scope := s.ctx, s.backend, s.scope()
		return s, func() tea.Msg {
			return userDeletedMsg{scoped: scope, name: u.Name, err: backend.DeleteUser(ctx, u.ID)}
		}
	}
	return s, nil
}

// — add-user form ———————————————————————————————————————————————————————————

func (s *usersScreen) openForm() tea.Cmd {
	s.mode = usersCreate
	s.status = ""
	s.clearForm()
	return s.setFocus(nameField)
}

// clearForm resets every field; the role goes back to Tech Lead.
func (s *usersScreen) clearForm() {
	for i := range s.inputs {
		s.inputs[i].Reset()
	}
	s.roleIdx = defaultRoleIdx()
	s.formErr = ""
}

func (s *usersScreen) closeForm() {
	s.clearForm()
	for i := range s.inputs {
		s.inputs[i].Blur()
	}
	s.mode = usersBrowse
}

func (s *usersScreen) setFocus(i int) tea.Cmd {
	s.focus = i
	var cmd tea.Cmd
	for j := range s.inputs {
		if j == i {
			cmd = s.inputs[j].Focus()
		} else {
			s.inputs[j].Blur()
		}
	}
	return cmd
}

func (s *usersScreen) updateCreate(msg tea.KeyMsg) (screen, tea.Cmd) {
	if s.submitting {
		return s, nil
	}
	switch msg.String() {
	case "esc":
		s.closeForm()
		return s, nil
	case "ctrl+l":
		s.clearForm()
		return s, s.setFocus(nameField)
	case "tab", "down":
		return s, s.setFocus((s.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return s, s.setFocus((s.focus + fieldCount - 1) % fieldCount)
	case "enter":
		return s, s.submit()
	}
	if s.focus == roleField {
		switch msg.String() {
		case "left", "h":
			s.roleIdx = (s.roleIdx + len(model.Roles) - 1) % len(model.Roles)
		case "right", "l", " ":
			s.roleIdx = (s.roleIdx + 1) % len(model.Roles)
		}
		return s, nil
	}
	return s.updateInput(msg)
}

func (s *usersScreen) updateInput(msg tea.Msg) (screen, tea.Cmd) {
	if s.focus >= len(s.inputs) {
		return s, nil
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s *usersScreen) submit() tea.Cmd {
	u := model.NewUser{
		Name:     strings.TrimSpace(s.inputs[nameField].Value()),
		Email:    strings.TrimSpace(s.inputs[emailField].Value()),
		Password: s.inputs[passwordField].Value(),
		Role:     model.Roles[s.roleIdx],
	}
	if err := u.Validate(); err != nil {
		s.formErr = errText(err)
		return nil
	}
	s.formErr = ""
	s.submitting = true
	ctx, backend, scope := s.ctx, s.backend, s.scope()
	return func() tea.Msg {
		created, err := backend.CreateUser(ctx, u)
		return userCreatedMsg{scoped: scope, user: created, err: err}
	}
}

func (s *usersScreen) Help() string {
	switch s.mode {
	case usersCreate:
		return "Tab next field   ←/→ role   Enter submit   Ctrl+L clear   Esc close"
	case usersDeleteConfirm:
		return "y/Enter confirm   n/Esc cancel"
	}
	text := "↑/↓ navigate   r refresh"
	if s.isAdmin() {
		text += "   n add user   d delete user"
	}
	return text
}

// — view ————————————————————————————————————————————————————————————————————

func (s *usersScreen) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Users") + "  " + dimStyle.Render("Tech leads") + "\n\n")

	if s.users.failed() {
		b.WriteString(errStyle.Render("Could not load users: "+errText(s.users.err)) + "\n\n")
	}
	switch {
	case s.users.loading() && len(s.users.value) == 0:
		b.WriteString(dimStyle.Render("Loading users…"))
	case len(s.users.value) == 0:
		b.WriteString(dimStyle.Render("No users found"))
	default:
		b.WriteString(s.table.View())
	}

	if s.status != "" {
		style := okStyle
		if strings.HasPrefix(s.status, "Failed") {
			style = errStyle
		}
		b.WriteString("\n\n" + style.Render(s.status))
	}

	switch s.mode {
	case usersCreate:
		return overlay(s.width, s.height, s.renderForm())
	case usersDeleteConfirm:
		return overlay(s.width, s.height, s.renderDeleteConfirm())
	}
	return b.String()
}

func (s *usersScreen) renderForm() string {
	var b strings.Builder
	b.WriteString(boldStyle.Render("Add user") + "\n\n")
	labels := [3]string{"Name", "Email", "Password"}
	for i, in := range s.inputs {
		b.WriteString(labels[i] + "\n")
		b.WriteString(in.View() + "\n\n")
	}
	b.WriteString("Role\n")
	var opts []string
	for i, r := range model.Roles {
		label := r.Label()
		if i == s.roleIdx {
			label = "(•) " + label
			if s.focus == roleField {
				label = titleStyle.Render(label)
			}
		} else {
			label = dimStyle.Render("( ) " + label)
		}
		opts = append(opts, label)
	}
	b.WriteString(strings.Join(opts, "   ") + "\n")

	switch {
	case s.submitting:
		b.WriteString("\n" + dimStyle.Render("Creating…") + "\n")
	case s.formErr != "":
		b.WriteString("\n" + errStyle.Render(s.formErr) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("Enter Submit · Ctrl+L Clear · Esc Close"))
	return modalStyle.Render(b.String())
}

func (s *usersScreen) renderDeleteConfirm() string {
	var b strings.Builder
	b.WriteString(errStyle.Render("Delete User") + "\n\n")
	if u, ok := s.selectedUser(); ok {
		b.WriteString(labelStyle.Render("Name     ") + u.Name + "\n")
		b.WriteString(labelStyle.Render("Email    ") + u.Email + "\n\n")
	}
	b.WriteString("Are you sure you want to delete this user?\n")
	if s.submitting {
		b.WriteString("\n" + dimStyle.Render("Deleting…") + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("y/Enter to confirm · Esc/n to cancel"))
	return deleteModalStyle.Render(b.String())
}
