package server

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

type access int

const (
	accessPublic access = iota
	accessSession
	accessAdmin
)

type commandHandler func(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error

type commandRoute struct {
	access  access
	handler commandHandler
}

func (a *App) routes() map[string]commandRoute {
	return map[string]commandRoute{
		protocol.ActionVocabulary:       {accessPublic, a.handleVocabulary},
		protocol.ActionWhoAmI:           {accessSession, a.handleWhoAmI},
		protocol.ActionMaterialList:     {accessSession, a.handleMaterialList},
		protocol.ActionMaterialUpload:   {accessSession, a.handleMaterialUpload},
		protocol.ActionMaterialLike:     {accessSession, a.handleMaterialLike},
		protocol.ActionMaterialDownload: {accessSession, a.handleMaterialDownload},
		protocol.ActionMaterialPending:  {accessAdmin, a.handleMaterialPending},
		protocol.ActionMaterialSearch:   {accessAdmin, a.handleMaterialSearch},
		protocol.ActionMaterialApprove:  {accessAdmin, a.handleMaterialApprove},
		protocol.ActionMaterialDelete:   {accessAdmin, a.handleMaterialDelete},
		protocol.ActionUserList:         {accessAdmin, a.handleUserList},
		protocol.ActionUserAdd:          {accessAdmin, a.handleUserAdd},
		protocol.ActionUserDelete:       {accessAdmin, a.handleUserDelete},
		protocol.ActionUserPromote:      {accessAdmin, a.handleUserPromote},
		protocol.ActionStats:            {accessAdmin, a.handleStats},
	}
}

func (a *App) handleCommand(ctx context.Context, session *clientSession, env protocol.Envelope) error {
	action := strings.ToLower(strings.TrimSpace(env.Action()))
	route, ok := a.routes()[action]
	if !ok {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "unsupported command")
		return nil
	}

	var account portal.Account
	var err error
	switch route.access {
	case accessSession:
		account, err = a.requireSession(env)
	case accessAdmin:
		account, err = a.requireAdmin(env)
	}
	if err != nil {
		if errors.Is(err, errAdminOnly) {
			log.Printf("command denied action=%s id=%s", action, account.ID)
		}
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, err.Error())
		return nil
	}
	return route.handler(ctx, session, env, account)
}

func (a *App) handleVocabulary(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	return a.reply(ctx, session, env.ID, protocol.ActionVocabulary, protocol.NewVocabulary())
}

func (a *App) handleWhoAmI(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error {
	return a.reply(ctx, session, env.ID, protocol.ActionWhoAmI, protocol.SessionInfo{
		Account:  account,
		LikedIDs: a.provider.LikedIDs(),
	})
}

func (a *App) handleMaterialList(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	var filter portal.Filter
	if env.Payload != nil {
		decoded, err := protocol.DecodePayload[portal.Filter](env.Payload)
		if err != nil {
			a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid filter")
			return nil
		}
		filter = decoded
	}
	return a.replyMaterials(ctx, session, env.ID, protocol.ActionMaterialList, filter, portal.Browse(a.provider.Materials(), filter))
}

func (a *App) handleMaterialLike(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	ref, err := protocol.DecodePayload[protocol.MaterialRef](env.Payload)
	if err != nil || strings.TrimSpace(ref.ID) == "" {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid material reference")
		return nil
	}
	liked, found := a.provider.ToggleLike(ctx, ref.ID)
	if !found {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "material not found")
		return nil
	}
	material, _ := a.provider.Material(ref.ID)
	a.notifyCatalogChanged(protocol.ChangeLiked, ref.ID)
	return a.reply(ctx, session, env.ID, protocol.ActionMaterialLike, protocol.LikeResult{
		ID:    ref.ID,
		Liked: liked,
		Likes: material.Likes,
	})
}

func (a *App) handleMaterialPending(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	return a.replyMaterials(ctx, session, env.ID, protocol.ActionMaterialPending, portal.Filter{}, portal.Pending(a.provider.Materials()))
}

func (a *App) handleMaterialSearch(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	var term string
	if env.Payload != nil {
		req, err := protocol.DecodePayload[protocol.SearchRequest](env.Payload)
		if err != nil {
			a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid search payload")
			return nil
		}
		term = strings.TrimSpace(req.Term)
	}
	return a.replyMaterials(ctx, session, env.ID, protocol.ActionMaterialSearch, portal.Filter{Search: term}, portal.AdminSearch(a.provider.Materials(), term))
}

func (a *App) handleMaterialApprove(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error {
	return a.mutateMaterial(ctx, session, env, account, protocol.ChangeApproved, a.provider.ApproveMaterial)
}

func (a *App) handleMaterialDelete(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error {
	return a.mutateMaterial(ctx, session, env, account, protocol.ChangeDeleted, a.provider.DeleteMaterial)
}

func (a *App) mutateMaterial(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account, kind string, mutate func(context.Context, string) bool) error {
	ref, err := protocol.DecodePayload[protocol.MaterialRef](env.Payload)
	if err != nil || strings.TrimSpace(ref.ID) == "" {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid material reference")
		return nil
	}
	if !mutate(ctx, ref.ID) {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "material not found")
		return nil
	}
	log.Printf("material %s id=%s by=%s", kind, ref.ID, account.ID)
	a.sendAck(ctx, session, env.ID, protocol.AckStatusOK, "")
	a.notifyCatalogChanged(kind, ref.ID)
	return nil
}

func (a *App) handleUserList(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	return a.reply(ctx, session, env.ID, protocol.ActionUserList, protocol.UserList{Accounts: a.provider.Accounts()})
}

func (a *App) handleUserAdd(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	req, err := protocol.DecodePayload[protocol.UserAddRequest](env.Payload)
	if err != nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid user payload")
		return nil
	}
	role := portal.RoleStudent
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := portal.ParseRole(req.Role)
		if !ok {
			a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid role")
			return nil
		}
		role = parsed
	}

	created, ok := a.provider.AdminAddUser(ctx, portal.NewAccount{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Role:   role,
		Branch: strings.TrimSpace(req.Branch),
		Year:   strings.TrimSpace(req.Year),
	})
	if !ok {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, errEmailTaken.Error())
		return nil
	}
	a.notifyCatalogChanged(protocol.ChangeUsers, "")
	return a.reply(ctx, session, env.ID, protocol.ActionUserAdd, protocol.UserList{Accounts: []portal.Account{created}})
}

func (a *App) handleUserDelete(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error {
	ref, err := protocol.DecodePayload[protocol.AccountRef](env.Payload)
	if err != nil || strings.TrimSpace(ref.ID) == "" {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid account reference")
		return nil
	}
	if ref.ID == account.ID {
		log.Printf("self delete ignored id=%s", account.ID)
		a.sendAck(ctx, session, env.ID, protocol.AckStatusOK, "")
		return nil
	}
	if _, ok := a.provider.Account(ref.ID); !ok {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "account not found")
		return nil
	}
	a.provider.DeleteUser(ctx, ref.ID)
	log.Printf("account deleted id=%s by=%s", ref.ID, account.ID)
	a.sendAck(ctx, session, env.ID, protocol.AckStatusOK, "")
	a.notifyCatalogChanged(protocol.ChangeUsers, "")
	return nil
}

func (a *App) handleUserPromote(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error {
	ref, err := protocol.DecodePayload[protocol.AccountRef](env.Payload)
	if err != nil || strings.TrimSpace(ref.ID) == "" {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid account reference")
		return nil
	}
	if _, ok := a.provider.Account(ref.ID); !ok {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "account not found")
		return nil
	}
	a.provider.PromoteToAdmin(ctx, ref.ID)
	log.Printf("account promoted id=%s by=%s", ref.ID, account.ID)
	a.sendAck(ctx, session, env.ID, protocol.AckStatusOK, "")
	a.notifyCatalogChanged(protocol.ChangeUsers, "")
	return nil
}

func (a *App) handleStats(ctx context.Context, session *clientSession, env protocol.Envelope, _ portal.Account) error {
	return a.reply(ctx, session, env.ID, protocol.ActionStats, portal.ComputeStats(a.provider.Accounts(), a.provider.Materials()))
}

func (a *App) replyMaterials(ctx context.Context, session *clientSession, referenceID, action string, filter portal.Filter, materials []portal.Material) error {
	summaries := make([]protocol.MaterialSummary, 0, len(materials))
	for _, m := range materials {
		summaries = append(summaries, protocol.Summarize(m, a.provider.IsMaterialLiked(m.ID)))
	}
	return a.reply(ctx, session, referenceID, action, protocol.MaterialList{Filter: filter, Materials: summaries})
}
