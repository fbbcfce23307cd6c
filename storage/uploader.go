package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedImageType возвращается для content-type, не входящего в
// список форматов, допустимых для эмблем команд и аватаров пользователей.
var ErrUnsupportedImageType = errors.New("unsupported image content type")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// Соглашение о ключах: все файлы приложения лежат под двумя префиксами,
// crests/ для эмблем команд и avatars/ для аватаров пользователей. Случайный
// токен в имени обесценивает закэшированные ссылки после замены файла.

func CrestKey(teamID int, token, ext string) string {
	return fmt.Sprintf("crests/%d/%s.%s", teamID, token, ext)
}

func AvatarKey(userID int, token, ext string) string {
	return fmt.Sprintf("avatars/%d/%s.%s", userID, token, ext)
}

// ImageExtension проверяет content-type загружаемой картинки и возвращает
// расширение файла для ключа.
func ImageExtension(contentType string) (string, error) {
	switch contentType {
	case "image/png":
		return "png", nil
	case "image/jpeg":
		return "jpg", nil
	case "image/webp":
		return "webp", nil
	case "image/svg+xml":
		return "svg", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, contentType)
	}
}
