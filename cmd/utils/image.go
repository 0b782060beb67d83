package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxMediaSize = 10 << 20 // 10 MB
	MediaPath    = "uploads/media"
)

// SaveMedia stores an uploaded image and returns its served path and media
// id. The id is what a later Release call takes.
func SaveMedia(file multipart.File, header *multipart.FileHeader) (string, string, error) {
	if header.Size > MaxMediaSize {
		return "", "", fmt.Errorf("file size exceeds maximum limit of %d MB", MaxMediaSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isValidImageType(ext) {
		return "", "", fmt.Errorf("invalid file type: %s", ext)
	}

	if err := os.MkdirAll(MediaPath, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	mediaID := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102"),
		uuid.New().String(),
		ext,
	)
	filePath := filepath.Join(MediaPath, mediaID)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", "", fmt.Errorf("failed to save file: %v", err)
	}

	return fmt.Sprintf("/media/%s", mediaID), mediaID, nil
}

func isValidImageType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
	return validTypes[ext]
}

// LocalMedia releases assets stored by SaveMedia. It stands in for the
// hosted media service the deployed system destroys assets through.
type LocalMedia struct{}

// Release removes the stored asset. A missing file counts as released.
func (LocalMedia) Release(mediaID string) error {
	filePath := filepath.Join(MediaPath, filepath.Base(mediaID))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(filePath)
}
