package protocol

import (
	"time"

	"github.com/fenggwsx/StudyShelf/internal/portal"
)

// MessageType enumerates high-level protocol intents.
type MessageType string

const (
	MessageTypeAuthRequest  MessageType = "auth_request"
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeEvent        MessageType = "event"
	MessageTypeCommand      MessageType = "command"
	MessageTypeAck          MessageType = "ack"
	MessageTypeFileDownload MessageType = "file_download"
)

// Command and event actions carried in Envelope.Metadata["action"].
const (
	ActionVocabulary       = "vocabulary"
	ActionWhoAmI           = "whoami"
	ActionMaterialList     = "material_list"
	ActionMaterialUpload   = "material_upload"
	ActionMaterialLike     = "material_like"
	ActionMaterialDownload = "material_download"
	ActionMaterialPending  = "material_pending"
	ActionMaterialSearch   = "material_search"
	ActionMaterialApprove  = "material_approve"
	ActionMaterialDelete   = "material_delete"
	ActionUserList         = "user_list"
	ActionUserAdd          = "user_add"
	ActionUserDelete       = "user_delete"
	ActionUserPromote      = "user_promote"
	ActionStats            = "stats"
	ActionCatalogChanged   = "catalog_changed"
)

// Ack statuses.
const (
	AckStatusOK    = "ok"
	AckStatusError = "error"
)

// Envelope wraps every payload sent over the wire.
type Envelope struct {
	ID        string                 `json:"id"`
	Type      MessageType            `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Token     string                 `json:"token,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Payload   interface{}            `json:"payload,omitempty"`
}

// Action returns the metadata action of the envelope, if any.
func (e Envelope) Action() string {
	if e.Metadata == nil {
		return ""
	}
	if s, ok := e.Metadata["action"].(string); ok {
		return s
	}
	return ""
}

// AckPayload represents acknowledgement semantics.
type AckPayload struct {
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// AuthRequest carries login, signup or logout data.
type AuthRequest struct {
	Action   string `json:"action"` // login, signup or logout
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Year     string `json:"year,omitempty"`
}

// AuthResponse returns token and account details to the client.
type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresAt int64          `json:"expires_at"`
	Account   portal.Account `json:"account"`
}

// MaterialRef identifies a single material.
type MaterialRef struct {
	ID string `json:"id"`
}

// AccountRef identifies a single account.
type AccountRef struct {
	ID string `json:"id"`
}

// SearchRequest carries an admin free-text search.
type SearchRequest struct {
	Term string `json:"term"`
}

// MaterialUploadRequest carries a new material. The file is either inline
// (DataBase64 + MimeType) or an external FileURL.
type MaterialUploadRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Branch      string `json:"branch"`
	Year        string `json:"year"`
	Semester    string `json:"semester"`
	Type        string `json:"type"`
	Filename    string `json:"filename,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	DataBase64  string `json:"data_base64,omitempty"`
	FileURL     string `json:"file_url,omitempty"`
}

// UserAddRequest carries an account created by an administrator.
type UserAddRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Branch string `json:"branch,omitempty"`
	Year   string `json:"year,omitempty"`
}

// MaterialSummary is a material as listed to clients, without the file payload.
type MaterialSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Subject      string `json:"subject"`
	Branch       string `json:"branch"`
	Year         string `json:"year"`
	Semester     string `json:"semester"`
	Type         string `json:"type"`
	UploadedBy   string `json:"uploaded_by"`
	UploaderName string `json:"uploader_name"`
	IsApproved   bool   `json:"is_approved"`
	Downloads    int    `json:"downloads"`
	Likes        int    `json:"likes"`
	Liked        bool   `json:"liked"`
	CreatedAt    int64  `json:"created_at"`
	Size         string `json:"size"`
}

// MaterialList is the response to listing commands.
type MaterialList struct {
	Filter    portal.Filter     `json:"filter"`
	Materials []MaterialSummary `json:"materials"`
}

// LikeResult reports the state after a like toggle.
type LikeResult struct {
	ID    string `json:"id"`
	Liked bool   `json:"liked"`
	Likes int    `json:"likes"`
}

// UserList is the response to user_list.
type UserList struct {
	Accounts []portal.Account `json:"accounts"`
}

// Vocabulary lists the closed vocabularies for forms and filters.
type Vocabulary struct {
	Branches      []portal.BranchOption `json:"branches"`
	Years         []string              `json:"years"`
	Semesters     []string              `json:"semesters"`
	ResourceTypes []string              `json:"resource_types"`
}

// FileDownloadPayload delivers a material file: inline bytes or an external URL.
type FileDownloadPayload struct {
	MaterialID string `json:"material_id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type,omitempty"`
	DataBase64 string `json:"data_base64,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Summarize converts a material for listing.
func Summarize(m portal.Material, liked bool) MaterialSummary {
	return MaterialSummary{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Subject:      m.Subject,
		Branch:       m.Branch,
		Year:         m.Year,
		Semester:     m.Semester,
		Type:         string(m.Type),
		UploadedBy:   m.UploadedBy,
		UploaderName: m.UploaderName,
		IsApproved:   m.IsApproved,
		Downloads:    m.Downloads,
		Likes:        m.Likes,
		Liked:        liked,
		CreatedAt:    m.CreatedAt.Unix(),
		Size:         m.Size,
	}
}

// NewVocabulary snapshots the portal vocabularies.
func NewVocabulary() Vocabulary {
	types := make([]string, 0, len(portal.ResourceTypes))
	for _, t := range portal.ResourceTypes {
		types = append(types, string(t))
	}
	return Vocabulary{
		Branches:      portal.Branches,
		Years:         portal.Years,
		Semesters:     portal.Semesters,
		ResourceTypes: types,
	}
}

// Catalog change kinds.
const (
	ChangeUploaded   = "uploaded"
	ChangeApproved   = "approved"
	ChangeDeleted    = "deleted"
	ChangeLiked      = "liked"
	ChangeDownloaded = "downloaded"
	ChangeUsers      = "users"
)

// CatalogChange is broadcast after any mutation so clients can refresh.
type CatalogChange struct {
	Kind       string `json:"kind"`
	MaterialID string `json:"material_id,omitempty"`
}

// SessionInfo answers whoami.
type SessionInfo struct {
	Account  portal.Account `json:"account"`
	LikedIDs []string       `json:"liked_ids"`
}
