package serializers

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidImage is returned for anything that is not a base64 image data URI
var ErrInvalidImage = errors.New("image must be a base64 encoded data URI")

// Image is a decoded upload. Name is synthesized from the declared format.
type Image struct {
	Data        []byte
	Name        string
	Ext         string
	ContentType string
}

// DecodeBase64Image parses "data:image/<format>;base64,<payload>".
func DecodeBase64Image(payload string) (*Image, error) {
	header, encoded, ok := strings.Cut(payload, ";base64,")
	if !ok || !strings.HasPrefix(header, "data:image/") {
		return nil, ErrInvalidImage
	}

	contentType := strings.TrimPrefix(header, "data:")
	ext := strings.ToLower(contentType[strings.LastIndex(contentType, "/")+1:])
	if ext == "" || strings.ContainsAny(ext, `./\`) {
		return nil, ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}

	return &Image{
		Data:        data,
		Name:        "temp." + ext,
		Ext:         ext,
		ContentType: contentType,
	}, nil
}
