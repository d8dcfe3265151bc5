package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

func (a *App) handleSubmit(value string) tea.Cmd {
	if strings.HasPrefix(value, string(a.cfg.CommandPrefix)) {
		return a.executeCommand(value)
	}
	a.logErrorf("Commands start with %s. Try %shelp", string(a.cfg.CommandPrefix), string(a.cfg.CommandPrefix))
	return nil
}

func (a *App) executeCommand(raw string) tea.Cmd {
	fields, err := splitArgs(raw)
	if err != nil {
		a.logErrorf("Cannot parse command: %v", err)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}

	cmd := "/" + strings.TrimPrefix(strings.ToLower(fields[0]), string(a.cfg.CommandPrefix))
	args := fields[1:]
	var cmds []tea.Cmd
	add := func(c tea.Cmd) {
		if c != nil {
			cmds = append(cmds, c)
		}
	}

	switch cmd {
	case "/help":
		a.view = viewHelp
		a.logf("Switched to HELP view")
	case "/home":
		a.view = viewHome
	case "/pipe":
		if len(args) > 0 && strings.EqualFold(args[0], "clear") {
			a.pipeHistory = make([]pipeEntry, 0, pipeHistoryLimit)
			a.logf("Cleared pipe history")
			break
		}
		a.view = viewPipe
		a.logf("Switched to PIPE view")
	case "/connect":
		target := a.serverAddr
		if len(args) > 0 {
			target = args[0]
		}
		if target == "" {
			a.logErrorf("Provide a server address to connect")
			break
		}
		add(a.connectToServer(target))
	case "/quit", "/exit":
		a.logf("Exiting client")
		if a.session != nil {
			_ = a.session.Close()
			a.session = nil
		}
		a.statusOnline = false
		a.clearAuth()
		add(tea.Quit)
	case "/login", "/signup", "/logout":
		if !a.requireConnection() {
			break
		}
		add(a.runAuthCommand(cmd, args))
	case "/vocab":
		if !a.requireConnection() {
			break
		}
		add(a.sendCommand(protocol.ActionVocabulary, nil, "vocabulary", false))
	default:
		if !a.requireConnection() || !a.requireLogin() {
			break
		}
		add(a.runSessionCommand(cmd, args))
	}

	a.updateViewportContent()
	return tea.Batch(cmds...)
}

func (a *App) requireConnection() bool {
	if !a.isConnected() {
		a.logErrorf("Not connected. Use /connect first.")
		return false
	}
	return true
}

func (a *App) requireLogin() bool {
	if !a.isAuthenticated() {
		a.logErrorf("Sign in first with /login or /signup")
		return false
	}
	return true
}

func (a *App) requireAdmin() bool {
	if !a.isAdmin() {
		a.logErrorf("This command is for administrators")
		return false
	}
	return true
}

func (a *App) runAuthCommand(cmd string, args []string) tea.Cmd {
	switch cmd {
	case "/login":
		if len(args) < 2 {
			a.logErrorf("Usage: /login <email> <password> [student|admin]")
			return nil
		}
		role := string(portal.RoleStudent)
		if len(args) > 2 {
			parsed, ok := portal.ParseRole(args[2])
			if !ok {
				a.logErrorf("Role must be student or admin")
				return nil
			}
			role = string(parsed)
		}
		a.logf("Signing in as %s ...", args[0])
		return a.sendAuth(protocol.AuthRequest{Action: "login", Email: args[0], Password: args[1], Role: role})
	case "/signup":
		positional, options := splitOptions(args)
		if len(positional) < 3 {
			a.logErrorf(`Usage: /signup "<name>" <email> <password> [branch=CSE] [year="1st Year"]`)
			return nil
		}
		branch := strings.ToUpper(firstOption(options, "branch"))
		if branch != "" && !portal.IsBranch(branch) {
			a.logErrorf("Unknown branch %s", branch)
			return nil
		}
		a.logf("Creating account for %s ...", positional[1])
		return a.sendAuth(protocol.AuthRequest{
			Action:   "signup",
			Name:     positional[0],
			Email:    positional[1],
			Password: positional[2],
			Role:     string(portal.RoleStudent),
			Branch:   branch,
			Year:     firstOption(options, "year"),
		})
	default:
		if !a.isAuthenticated() {
			a.logErrorf("Not signed in")
			return nil
		}
		return a.sendAuth(protocol.AuthRequest{Action: "logout"})
	}
}

func (a *App) runSessionCommand(cmd string, args []string) tea.Cmd {
	positional, options := splitOptions(args)

	switch cmd {
	case "/whoami":
		return a.sendCommand(protocol.ActionWhoAmI, nil, "whoami", true)
	case "/browse":
		filter := portal.Filter{
			Branch:   strings.ToUpper(firstOption(options, "branch")),
			Year:     firstOption(options, "year"),
			Semester: firstOption(options, "semester", "sem"),
			Search:   strings.TrimSpace(strings.Join(append(positional, firstOption(options, "q", "search")), " ")),
		}
		if t := firstOption(options, "type"); t != "" {
			parsed, ok := portal.ParseResourceType(t)
			if !ok {
				a.logErrorf("Unknown resource type %s", t)
				return nil
			}
			filter.Type = string(parsed)
		}
		return a.requestList(protocol.ActionMaterialList, filter, "Browse")
	case "/upload":
		return a.startUpload(positional, options)
	case "/like", "/download":
		if len(positional) < 1 {
			a.logErrorf("Usage: %s <material_id>", cmd)
			return nil
		}
		action := protocol.ActionMaterialLike
		if cmd == "/download" {
			action = protocol.ActionMaterialDownload
		}
		return a.sendCommand(action, protocol.MaterialRef{ID: positional[0]}, strings.TrimPrefix(cmd, "/")+" "+positional[0], true)
	}

	if !a.requireAdmin() {
		return nil
	}

	switch cmd {
	case "/pending":
		return a.requestList(protocol.ActionMaterialPending, nil, "Pending approval")
	case "/search":
		term := strings.TrimSpace(strings.Join(positional, " "))
		return a.requestList(protocol.ActionMaterialSearch, protocol.SearchRequest{Term: term}, "Search: "+term)
	case "/approve", "/delete":
		if len(positional) < 1 {
			a.logErrorf("Usage: %s <material_id>", cmd)
			return nil
		}
		action := protocol.ActionMaterialApprove
		if cmd == "/delete" {
			action = protocol.ActionMaterialDelete
		}
		return a.sendCommand(action, protocol.MaterialRef{ID: positional[0]}, strings.TrimPrefix(cmd, "/")+" "+positional[0], true)
	case "/users":
		return a.sendCommand(protocol.ActionUserList, nil, "users", true)
	case "/adduser":
		if len(positional) < 2 {
			a.logErrorf(`Usage: /adduser "<name>" <email> [role=student|admin] [branch=CSE] [year="1st Year"]`)
			return nil
		}
		return a.sendCommand(protocol.ActionUserAdd, protocol.UserAddRequest{
			Name:   positional[0],
			Email:  positional[1],
			Role:   firstOption(options, "role"),
			Branch: strings.ToUpper(firstOption(options, "branch")),
			Year:   firstOption(options, "year"),
		}, "add user "+positional[1], true)
	case "/promote", "/rmuser":
		if len(positional) < 1 {
			a.logErrorf("Usage: %s <user_id>", cmd)
			return nil
		}
		action := protocol.ActionUserPromote
		if cmd == "/rmuser" {
			if a.account != nil && positional[0] == a.account.ID {
				a.logErrorf("You cannot remove your own account")
				return nil
			}
			action = protocol.ActionUserDelete
		}
		return a.sendCommand(action, protocol.AccountRef{ID: positional[0]}, strings.TrimPrefix(cmd, "/")+" "+positional[0], true)
	case "/stats":
		return a.sendCommand(protocol.ActionStats, nil, "stats", true)
	default:
		a.logErrorf("Command %s not implemented", cmd)
		return nil
	}
}

// startUpload builds a material upload from "/upload [path] key=value ...".
// Without a path the url option names an external file.
func (a *App) startUpload(positional []string, options map[string]string) tea.Cmd {
	req := protocol.MaterialUploadRequest{
		Title:       firstOption(options, "title"),
		Description: firstOption(options, "desc", "description"),
		Subject:     firstOption(options, "subject"),
		Branch:      strings.ToUpper(firstOption(options, "branch")),
		Year:        firstOption(options, "year"),
		Semester:    firstOption(options, "semester", "sem"),
		Type:        firstOption(options, "type"),
		FileURL:     firstOption(options, "url"),
	}
	if student, ok := a.account.Student(); ok {
		if req.Branch == "" {
			req.Branch = student.Branch
		}
		if req.Year == "" {
			req.Year = student.Year
		}
	}
	if req.Type == "" {
		req.Type = string(portal.TypeNotes)
	}

	if len(positional) == 0 && req.FileURL == "" {
		a.logErrorf(`Usage: /upload <path> title="..." subject=... semester="Sem 1" [type=Notes] [branch=CSE] [year="1st Year"] [desc="..."]`)
		return nil
	}
	if len(positional) > 0 {
		file, err := readUpload(positional[0], a.cfg.MaxUploadBytes)
		switch {
		case errors.Is(err, portal.ErrFileTooLarge):
			a.logErrorf("File size exceeds the %s limit", portal.SizeLabel(a.cfg.MaxUploadBytes))
			return nil
		case err != nil:
			a.logErrorf("%v", err)
			return nil
		}
		req.Filename = file.name
		req.MimeType = file.mimeType
		req.DataBase64 = base64.StdEncoding.EncodeToString(file.data)
		if req.Title == "" {
			req.Title = strings.TrimSuffix(file.name, fileExt(file.name))
		}
	}

	draft := portal.Draft{
		Title:    req.Title,
		Branch:   req.Branch,
		Year:     req.Year,
		Semester: req.Semester,
	}
	draft.Type, _ = portal.ParseResourceType(req.Type)
	if err := draft.Validate(); err != nil {
		a.logErrorf("%v", err)
		return nil
	}

	a.logf("Uploading %s ...", req.Title)
	return a.sendCommand(protocol.ActionMaterialUpload, req, "upload "+req.Title, true)
}

func fileExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[idx:]
	}
	return ""
}

func (a *App) requestList(action string, payload interface{}, title string) tea.Cmd {
	a.lastList = &listRequest{action: action, payload: payload}
	a.listTitle = title
	a.view = viewMaterials
	return a.sendCommand(action, payload, strings.ToLower(title), true)
}

func (a *App) refreshList() tea.Cmd {
	if a.lastList == nil || !a.isAuthenticated() {
		return nil
	}
	return a.sendCommand(a.lastList.action, a.lastList.payload, "refresh", true)
}

func (a *App) sendAuth(req protocol.AuthRequest) tea.Cmd {
	session := a.session
	if session == nil {
		return nil
	}
	requestID := uuid.NewString()
	a.pendingRequests[requestID] = pendingRequest{action: req.Action, label: req.Action, email: req.Email}

	env := protocol.Envelope{
		ID:      requestID,
		Type:    protocol.MessageTypeAuthRequest,
		Payload: req,
	}
	return a.sendEnvelope(session, env, req.Action+" request", req.Action == "logout")
}

func (a *App) sendCommand(action string, payload interface{}, label string, attachToken bool) tea.Cmd {
	session := a.session
	if session == nil {
		return nil
	}
	requestID := uuid.NewString()
	a.pendingRequests[requestID] = pendingRequest{action: action, label: label}

	env := protocol.Envelope{
		ID:       requestID,
		Type:     protocol.MessageTypeCommand,
		Metadata: map[string]interface{}{"action": action},
		Payload:  payload,
	}
	return a.sendEnvelope(session, env, label, attachToken)
}

func (a *App) sendEnvelope(session *Session, env protocol.Envelope, description string, attachToken bool) tea.Cmd {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	envCopy := env
	if envCopy.Timestamp.IsZero() {
		envCopy.Timestamp = time.Now().UTC()
	}
	if attachToken && envCopy.Token == "" && strings.TrimSpace(a.authToken) != "" {
		envCopy.Token = a.authToken
	}
	a.appendPipeEntry(pipeDirectionOut, envCopy)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := session.Send(ctx, envCopy)
		return sendResultMsg{
			session:     session,
			id:          envCopy.ID,
			description: description,
			err:         err,
		}
	}
}

func defaultCommands() []commandSpec {
	return []commandSpec{
		{trigger: "/connect", usage: "/connect [addr]", description: "Connect to the server"},
		{trigger: "/login", usage: "/login <email> <password> [student|admin]", description: "Sign in"},
		{trigger: "/signup", usage: `/signup "<name>" <email> <password>`, description: "Create a student account", options: []string{"branch=", "year="}},
		{trigger: "/logout", usage: "/logout", description: "Sign out and clear likes"},
		{trigger: "/whoami", usage: "/whoami", description: "Show the signed-in account"},
		{trigger: "/browse", usage: "/browse [words]", description: "List approved materials", options: []string{"branch=", "year=", "sem=", "type=", "q="}},
		{trigger: "/upload", usage: "/upload <path>", description: "Submit a material for review", options: []string{"title=", "subject=", "desc=", "branch=", "year=", "sem=", "type=", "url="}},
		{trigger: "/like", usage: "/like <id>", description: "Toggle a like"},
		{trigger: "/download", usage: "/download <id>", description: "Download a material"},
		{trigger: "/pending", usage: "/pending", description: "Admin: materials awaiting approval"},
		{trigger: "/search", usage: "/search <term>", description: "Admin: search title or uploader"},
		{trigger: "/approve", usage: "/approve <id>", description: "Admin: approve a material"},
		{trigger: "/delete", usage: "/delete <id>", description: "Admin: delete a material"},
		{trigger: "/users", usage: "/users", description: "Admin: list accounts"},
		{trigger: "/adduser", usage: `/adduser "<name>" <email>`, description: "Admin: add an account", options: []string{"role=", "branch=", "year="}},
		{trigger: "/promote", usage: "/promote <user_id>", description: "Admin: make an account admin"},
		{trigger: "/rmuser", usage: "/rmuser <user_id>", description: "Admin: delete an account"},
		{trigger: "/stats", usage: "/stats", description: "Admin: dashboard figures"},
		{trigger: "/vocab", usage: "/vocab", description: "Show branches, years, semesters and types"},
		{trigger: "/home", usage: "/home", description: "Show the welcome screen"},
		{trigger: "/pipe", usage: "/pipe [clear]", description: "Inspect transport JSON frames"},
		{trigger: "/help", usage: "/help", description: "Show command help"},
		{trigger: "/quit", usage: "/quit", description: "Exit the client"},
	}
}

func (a *App) commandSpec(trigger string) (commandSpec, bool) {
	for _, c := range a.commands {
		if c.trigger == trigger {
			return c, true
		}
	}
	return commandSpec{}, false
}

func describeMaterial(m protocol.MaterialSummary) string {
	return fmt.Sprintf("%s %s", m.ID, m.Title)
}
