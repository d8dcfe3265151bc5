package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	return NewApp(config.ClientConfig{
		ServerAddr:     "127.0.0.1:9000",
		CommandPrefix:  '/',
		DownloadDir:    t.TempDir(),
		MaxUploadBytes: 8,
	})
}

func TestSplitArgs(t *testing.T) {
	args, err := splitArgs(`/signup "Ann Lee" ann@x.edu pw year='2nd Year' note="say \"hi\""`)
	require.NoError(t, err)
	require.Equal(t, []string{"/signup", "Ann Lee", "ann@x.edu", "pw", "year=2nd Year", `note=say "hi"`}, args)

	_, err = splitArgs(`/browse "unfinished`)
	require.ErrorIs(t, err, errUnterminatedQuote)
}

func TestSplitOptions(t *testing.T) {
	positional, options := splitOptions([]string{"./notes.pdf", "Title=Graphs", "url=https://x/y.pdf", "free"})
	require.Equal(t, []string{"./notes.pdf", "free"}, positional)
	require.Equal(t, map[string]string{"title": "Graphs", "url": "https://x/y.pdf"}, options)
	require.Equal(t, "Graphs", firstOption(options, "name", "title"))
	require.Empty(t, firstOption(options, "missing"))
}

func TestCommandsRequireConnection(t *testing.T) {
	app := newTestApp(t)

	app.executeCommand("/login rahul@abes.edu.in secret")
	require.Equal(t, logLevelError, app.logLine.level)
	require.Contains(t, app.logLine.body, "Not connected")

	app.executeCommand("/help")
	require.Equal(t, viewHelp, app.view)
}

func TestReadUploadEnforcesLimit(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(small, []byte("%PDF"), 0o600))
	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(big, []byte("0123456789"), 0o600))

	file, err := readUpload(small, 8)
	require.NoError(t, err)
	require.Equal(t, "notes.pdf", file.name)
	require.Equal(t, "application/pdf", file.mimeType)

	_, err = readUpload(big, 8)
	require.ErrorIs(t, err, portal.ErrFileTooLarge)

	_, err = readUpload(filepath.Join(dir, "missing.pdf"), 8)
	require.ErrorIs(t, err, errReadFile)
}

func TestWriteDownloadedFileAvoidsOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	first, err := writeDownloadedFile(dir, "Lab_1.txt", []byte("a"))
	require.NoError(t, err)
	second, err := writeDownloadedFile(dir, "../Lab_1.txt", []byte("b"))
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "Lab_1.txt"), first)
	require.Equal(t, filepath.Join(dir, "Lab_1(1).txt"), second)
}

func TestHandleEnvelopes(t *testing.T) {
	app := newTestApp(t)

	app.handleSessionEnvelope(protocol.Envelope{
		Type: protocol.MessageTypeAuthResponse,
		Payload: map[string]interface{}{
			"token":   "tok",
			"account": map[string]interface{}{"id": "admin1", "name": "Dr. Admin", "email": "admin@abes.edu.in", "role": "ADMIN"},
		},
	})
	require.True(t, app.isAuthenticated())
	require.True(t, app.isAdmin())

	app.handleSessionEnvelope(protocol.Envelope{
		Type:     protocol.MessageTypeEvent,
		Metadata: map[string]interface{}{"action": protocol.ActionMaterialPending},
		Payload: map[string]interface{}{
			"materials": []interface{}{map[string]interface{}{"id": "m3", "title": "React Hooks", "is_approved": false}},
		},
	})
	require.Equal(t, viewMaterials, app.view)
	require.Len(t, app.materials, 1)
	require.Equal(t, "m3", app.materials[0].ID)

	app.handleSessionEnvelope(protocol.Envelope{
		Type: protocol.MessageTypeFileDownload,
		Payload: map[string]interface{}{
			"material_id": "m5",
			"filename":    "Lab_1.txt",
			"data_base64": "aGVsbG8=",
		},
	})
	data, err := os.ReadFile(filepath.Join(app.cfg.DownloadDir, "Lab_1.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestSessionEndedAckClearsAuth(t *testing.T) {
	app := newTestApp(t)
	account := portal.Account{ID: "u1", Name: "Rahul"}
	app.account = &account
	app.authToken = "tok"
	app.pendingRequests["req-1"] = pendingRequest{action: protocol.ActionMaterialList, label: "browse"}

	app.handleSessionEnvelope(protocol.Envelope{
		Type:    protocol.MessageTypeAck,
		Payload: protocol.AckPayload{ReferenceID: "req-1", Status: protocol.AckStatusError, Reason: "session ended"},
	})
	require.False(t, app.isAuthenticated())
	require.Equal(t, logLevelError, app.logLine.level)
}

func TestCompleteWord(t *testing.T) {
	got, ok := completeWord("/pro", []string{"/promote", "/pending"})
	require.True(t, ok)
	require.Equal(t, "/promote", got)

	_, ok = completeWord("/p", []string{"/promote", "/pending", "/pipe"})
	require.False(t, ok)
}
