package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

func (a *App) handleSessionEnvelope(env protocol.Envelope) tea.Cmd {
	a.appendPipeEntry(pipeDirectionIn, env)
	switch env.Type {
	case protocol.MessageTypeAck:
		return a.handleAckEnvelope(env)
	case protocol.MessageTypeAuthResponse:
		a.handleAuthResponse(env)
	case protocol.MessageTypeEvent:
		return a.handleEventEnvelope(env)
	case protocol.MessageTypeFileDownload:
		a.handleFileDownload(env)
	default:
		a.logErrorf("Received %s message", string(env.Type))
	}
	return nil
}

func (a *App) handleAckEnvelope(env protocol.Envelope) tea.Cmd {
	ack, err := protocol.DecodePayload[protocol.AckPayload](env.Payload)
	if err != nil {
		a.logErrorf("Failed to decode ack: %v", err)
		return nil
	}

	pending, ok := a.pendingRequests[ack.ReferenceID]
	if !ok {
		if ack.Reason != "" {
			a.logf("Server response: %s", ack.Reason)
		}
		return nil
	}

	if strings.EqualFold(ack.Status, protocol.AckStatusOK) {
		switch pending.action {
		case "logout":
			delete(a.pendingRequests, ack.ReferenceID)
			a.clearAuth()
			a.view = viewHome
			a.logf("Signed out")
		case protocol.ActionMaterialApprove, protocol.ActionMaterialDelete,
			protocol.ActionUserDelete, protocol.ActionUserPromote:
			delete(a.pendingRequests, ack.ReferenceID)
			a.logf("Done: %s", pending.label)
			if pending.action == protocol.ActionUserDelete || pending.action == protocol.ActionUserPromote {
				return a.sendCommand(protocol.ActionUserList, nil, "users", true)
			}
		}
		// Remaining actions are completed by the event that follows the ack.
		return nil
	}

	delete(a.pendingRequests, ack.ReferenceID)
	reason := strings.TrimSpace(ack.Reason)
	if reason == "" {
		reason = "unknown error"
	}
	switch {
	case pending.action == "login":
		a.logErrorf("Login failed: %s", reason)
	case pending.action == "signup":
		a.logErrorf("Sign up failed: %s", reason)
	case reason == errSessionEndedReason || reason == errUnauthorizedReason:
		a.clearAuth()
		a.logErrorf("%s failed: %s. Sign in again.", pending.label, reason)
	default:
		a.logErrorf("%s failed: %s", pending.label, reason)
	}
	return nil
}

const (
	errSessionEndedReason = "session ended"
	errUnauthorizedReason = "unauthorized"
)

func (a *App) handleAuthResponse(env protocol.Envelope) {
	resp, err := protocol.DecodePayload[protocol.AuthResponse](env.Payload)
	if err != nil {
		a.logErrorf("Failed to decode auth response: %v", err)
		return
	}
	if ref, ok := env.Metadata["reference_id"].(string); ok {
		delete(a.pendingRequests, ref)
	}

	account := resp.Account
	a.account = &account
	a.authToken = resp.Token

	message := fmt.Sprintf("Signed in as %s (%s)", account.Name, account.Role())
	if resp.ExpiresAt != 0 {
		expiresAt := time.Unix(resp.ExpiresAt, 0).UTC().Format(time.RFC3339)
		message = fmt.Sprintf("%s, token expires %s", message, expiresAt)
	}
	a.logf("%s", message)
}

func (a *App) handleEventEnvelope(env protocol.Envelope) tea.Cmd {
	action := env.Action()
	if ref, ok := env.Metadata["reference_id"].(string); ok {
		delete(a.pendingRequests, ref)
	}

	switch action {
	case protocol.ActionCatalogChanged:
		return a.refreshList()
	case protocol.ActionVocabulary:
		vocab, err := protocol.DecodePayload[protocol.Vocabulary](env.Payload)
		if err != nil {
			a.logErrorf("Failed to decode vocabulary: %v", err)
			return nil
		}
		a.vocabulary = &vocab
		if a.view == viewHome || a.view == viewHelp {
			a.updateViewportContent()
		}
	case protocol.ActionWhoAmI:
		info, err := protocol.DecodePayload[protocol.SessionInfo](env.Payload)
		if err != nil {
			a.logErrorf("Failed to decode session: %v", err)
			return nil
		}
		a.account = &info.Account
		a.logf("%s <%s> %s, %d liked", info.Account.Name, info.Account.Email, info.Account.Role(), len(info.LikedIDs))
	case protocol.ActionMaterialList, protocol.ActionMaterialPending, protocol.ActionMaterialSearch:
		list, err := protocol.DecodePayload[protocol.MaterialList](env.Payload)
		if err != nil {
			a.logErrorf("Failed to decode materials: %v", err)
			return nil
		}
		a.materials = list.Materials
		a.view = viewMaterials
		a.logf("%d materials", len(list.Materials))
	case protocol.ActionMaterialUpload:
		summary, err := protocol.DecodePayload[protocol.MaterialSummary](env.Payload)
		if err != nil {
			a.logErrorf("Failed to decode upload result: %v", err)
			return nil
		}
		a.logf("Uploaded %s (%s). It is pending admin approval.", describeMaterial(summary), summary.Size)
	case protocol.ActionMaterialLike:
		result, err := protocol.DecodePayload[protocol.LikeResult](env.Payload)
		if err != nil {
			a.logErrorf("Failed to decode like: %v", err)
			return nil
		}
		verb := "Unliked"
		if result.Liked {
			verb = "Liked"
		}
		a.logf("%s %s (%d likes)", verb, result.ID, result.Likes)
	case protocol.ActionUserList, protocol.ActionUserAdd:
		list, err := protocol.DecodePayload[protocol.UserList](env.Payload)
		if err != nil {
			a.logErrorf("Failed to decode users: %v", err)
			return nil
		}
		if action == protocol.ActionUserAdd {
			if len(list.Accounts) > 0 {
				a.logf("Added %s (%s)", list.Accounts[0].Email, list.Accounts[0].ID)
			}
			return a.sendCommand(protocol.ActionUserList, nil, "users", true)
		}
		a.users = list.Accounts
		a.view = viewUsers
		a.logf("%d accounts", len(list.Accounts))
	case protocol.ActionStats:
		stats, err := protocol.DecodePayload[portal.Stats](env.Payload)
		if err != nil {
			a.logErrorf("Failed to decode stats: %v", err)
			return nil
		}
		a.stats = &stats
		a.view = viewStats
	default:
		a.logErrorf("Unhandled event action: %s", action)
	}
	return nil
}

func (a *App) handleFileDownload(env protocol.Envelope) {
	payload, err := protocol.DecodePayload[protocol.FileDownloadPayload](env.Payload)
	if err != nil {
		a.logErrorf("Failed to decode download payload: %v", err)
		return
	}
	if ref, ok := env.Metadata["reference_id"].(string); ok {
		delete(a.pendingRequests, ref)
	}

	if payload.URL != "" {
		a.logf("%s is hosted externally: %s", payload.Filename, payload.URL)
		return
	}

	data, err := base64.StdEncoding.DecodeString(payload.DataBase64)
	if err != nil {
		a.logErrorf("Failed to decode download data: %v", err)
		return
	}
	path, err := writeDownloadedFile(a.cfg.DownloadDir, payload.Filename, data)
	if err != nil {
		a.logErrorf("Failed to save download: %v", err)
		return
	}
	a.logf("Downloaded %s to %s", payload.MaterialID, path)
}

func (a *App) appendPipeEntry(direction pipeDirection, env protocol.Envelope) {
	bodyBytes, err := json.MarshalIndent(redactForPipe(env), "", "  ")
	entry := pipeEntry{
		direction:   direction,
		messageType: string(env.Type),
		timestamp:   time.Now(),
		body:        string(bodyBytes),
	}
	if err != nil {
		entry.body = fmt.Sprintf(`{"marshal_error":%q}`, err.Error())
	}
	if len(a.pipeHistory) >= pipeHistoryLimit {
		a.pipeHistory = append(a.pipeHistory[1:], entry)
	} else {
		a.pipeHistory = append(a.pipeHistory, entry)
	}
	if a.view == viewPipe {
		a.updateViewportContent()
	}
}

// redactForPipe hides passwords and file bodies from the pipe view.
func redactForPipe(env protocol.Envelope) protocol.Envelope {
	switch p := env.Payload.(type) {
	case protocol.AuthRequest:
		if p.Password != "" {
			p.Password = "***"
		}
		env.Payload = p
	case protocol.MaterialUploadRequest:
		if p.DataBase64 != "" {
			p.DataBase64 = fmt.Sprintf("<%d base64 chars>", len(p.DataBase64))
		}
		env.Payload = p
	case map[string]interface{}:
		if data, ok := p["data_base64"].(string); ok && data != "" {
			clone := make(map[string]interface{}, len(p))
			for k, v := range p {
				clone[k] = v
			}
			clone["data_base64"] = fmt.Sprintf("<%d base64 chars>", len(data))
			env.Payload = clone
		}
	}
	return env
}
