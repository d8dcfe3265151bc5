package server

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

const externalSizeLabel = "N/A"

// handleMaterialUpload stores a new, unapproved material attributed to the
// signed-in account. Inline files are embedded as data URLs.
func (a *App) handleMaterialUpload(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error {
	req, err := protocol.DecodePayload[protocol.MaterialUploadRequest](env.Payload)
	if err != nil {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid upload payload")
		return nil
	}

	draft, err := a.draftFromUpload(req, account)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, portal.ErrFileTooLarge) {
			reason = "file too large"
		}
		log.Printf("upload rejected id=%s remote=%s err=%v", account.ID, session.remoteAddr(), err)
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, reason)
		return nil
	}

	material := a.provider.AddMaterial(ctx, draft)
	a.sendAck(ctx, session, env.ID, protocol.AckStatusOK, "")
	a.notifyCatalogChanged(protocol.ChangeUploaded, material.ID)
	return a.reply(ctx, session, env.ID, protocol.ActionMaterialUpload, protocol.Summarize(material, false))
}

func (a *App) draftFromUpload(req protocol.MaterialUploadRequest, account portal.Account) (portal.Draft, error) {
	resourceType, ok := portal.ParseResourceType(req.Type)
	if !ok {
		resourceType = portal.ResourceType(strings.TrimSpace(req.Type))
	}
	draft := portal.Draft{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Subject:      strings.TrimSpace(req.Subject),
		Branch:       strings.TrimSpace(req.Branch),
		Year:         strings.TrimSpace(req.Year),
		Semester:     strings.TrimSpace(req.Semester),
		Type:         resourceType,
		UploadedBy:   account.ID,
		UploaderName: account.Name,
	}
	if err := draft.Validate(); err != nil {
		return portal.Draft{}, err
	}

	switch {
	case req.DataBase64 != "":
		data, err := base64.StdEncoding.DecodeString(req.DataBase64)
		if err != nil {
			return portal.Draft{}, errors.New("invalid file data")
		}
		if err := portal.CheckUploadSize(int64(len(data)), a.cfg.MaxUploadBytes); err != nil {
			return portal.Draft{}, err
		}
		draft.FileURL = portal.EncodeDataURL(req.MimeType, data)
		draft.Size = portal.SizeLabel(int64(len(data)))
	case strings.TrimSpace(req.FileURL) != "":
		draft.FileURL = strings.TrimSpace(req.FileURL)
		draft.Size = externalSizeLabel
	default:
		return portal.Draft{}, errors.New("file required")
	}
	return draft, nil
}

// handleMaterialDownload counts the download and streams the file back as a
// file_download envelope.
func (a *App) handleMaterialDownload(ctx context.Context, session *clientSession, env protocol.Envelope, account portal.Account) error {
	ref, err := protocol.DecodePayload[protocol.MaterialRef](env.Payload)
	if err != nil || strings.TrimSpace(ref.ID) == "" {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "invalid material reference")
		return nil
	}
	delivery, ok := a.provider.DownloadMaterial(ctx, ref.ID)
	if !ok {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "material not found")
		return nil
	}
	log.Printf("material downloaded id=%s by=%s inline=%t", ref.ID, account.ID, delivery.Inline())

	payload := protocol.FileDownloadPayload{
		MaterialID: delivery.MaterialID,
		Filename:   delivery.Filename,
		MimeType:   delivery.MimeType,
		URL:        delivery.URL,
	}
	if delivery.Inline() {
		payload.DataBase64 = base64.StdEncoding.EncodeToString(delivery.Data)
	}

	a.sendAck(ctx, session, env.ID, protocol.AckStatusOK, "")
	a.notifyCatalogChanged(protocol.ChangeDownloaded, ref.ID)
	return session.send(ctx, protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.MessageTypeFileDownload,
		Timestamp: time.Now(),
		Metadata:  map[string]interface{}{"reference_id": env.ID},
		Payload:   payload,
	})
}
