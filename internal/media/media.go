// Package media validates image attachments picked for chat messages and
// listing photos.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Attachment is a local image file ready to attach.
type Attachment struct {
	Path string
	MIME string
}

var imageMIMEs = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
}

// PickFromGallery validates a gallery selection of zero or more images.
// An empty selection means the user cancelled; that is not an error and
// returns (nil, nil).
func PickFromGallery(paths []string) ([]Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	attachments := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		a, err := validate(p)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *a)
	}
	return attachments, nil
}

// Capture validates a single captured photo. An empty path means the user
// backed out of the camera; that is not an error and returns (nil, nil).
func Capture(path string) (*Attachment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return validate(path)
}

func validate(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not an image", path)
	}

	mime, ok := imageMIMEs[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%s is not a supported image type", path)
	}

	return &Attachment{Path: path, MIME: mime}, nil
}
