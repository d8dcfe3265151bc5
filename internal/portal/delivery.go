package portal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

const dataURLPrefix = "data:"

// Delivery describes how a downloaded material reaches the user: either inline
// bytes to be written to Filename, or an external URL to open.
type Delivery struct {
	MaterialID string
	Filename   string
	MimeType   string
	Data       []byte
	URL        string
}

// Inline reports whether the delivery carries file bytes.
func (d Delivery) Inline() bool {
	return d.URL == ""
}

// NewDelivery resolves the file payload of m.
func NewDelivery(m Material) Delivery {
	base := strings.Join(strings.Fields(m.Title), "_")
	if base == "" {
		base = m.ID
	}
	fileURL := strings.TrimSpace(m.FileURL)

	if fileURL == "" || fileURL == "#" {
		return Delivery{
			MaterialID: m.ID,
			Filename:   base + ".txt",
			MimeType:   "text/plain",
			Data:       []byte(fmt.Sprintf("Content for %s\n\nDescription: %s", m.Title, m.Description)),
		}
	}

	if strings.HasPrefix(fileURL, dataURLPrefix) {
		mimeType, data, err := DecodeDataURL(fileURL)
		if err == nil {
			return Delivery{
				MaterialID: m.ID,
				Filename:   base + extensionFor(mimeType),
				MimeType:   mimeType,
				Data:       data,
			}
		}
	}

	return Delivery{
		MaterialID: m.ID,
		Filename:   base + ".pdf",
		URL:        fileURL,
	}
}

// EncodeDataURL embeds data as a base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return dataURLPrefix + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL extracts the media type and bytes of a base64 data URL.
func DecodeDataURL(value string) (string, []byte, error) {
	if !strings.HasPrefix(value, dataURLPrefix) {
		return "", nil, errors.New("not a data url")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(value, dataURLPrefix), ",")
	if !ok {
		return "", nil, errors.New("malformed data url")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data url is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mimeType, data, nil
}

// SizeLabel renders a byte count the way material cards display it.
func SizeLabel(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}

// CheckUploadSize rejects uploads above limit. A non-positive limit disables the check.
func CheckUploadSize(size, limit int64) error {
	if limit > 0 && size > limit {
		return fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge, SizeLabel(size), SizeLabel(limit))
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "application/pdf", "":
		return ".pdf"
	case "text/plain":
		return ".txt"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".pdf"
}
