package media

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
)

// MaxImageSize is the largest accepted image payload (vision APIs reject larger inputs).
const MaxImageSize = 20 << 20

var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Load reads an image file and returns it base64-encoded with its sniffed MIME type.
func Load(path string) (domain.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Image{}, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image: %w", err)
	}
	return FromBytes(data)
}

// FromBytes validates raw image bytes and encodes them.
func FromBytes(data []byte) (domain.Image, error) {
	if len(data) == 0 {
		return domain.Image{}, fmt.Errorf("%w: empty image", domain.ErrInvalidRequest)
	}
	if len(data) > MaxImageSize {
		return domain.Image{}, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidRequest, MaxImageSize)
	}
	mime := http.DetectContentType(data)
	if !supported[mime] {
		return domain.Image{}, fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidRequest, mime)
	}
	return domain.Image{MIME: mime, Base64: base64.StdEncoding.EncodeToString(data)}, nil
}

// FromBase64 validates an already-encoded image. A data URI prefix is accepted and stripped.
func FromBase64(s string) (domain.Image, error) {
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: invalid base64 image: %w", domain.ErrInvalidRequest, err)
	}
	return FromBytes(data)
}
