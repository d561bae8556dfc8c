// Package chartstore хранит изображения графиков к рекомендациям и логотип
// в локальной файловой системе или в S3. Ключ объекта непрозрачен для вызывающего кода.
package chartstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/config"
)

// LogoKey ключ, под которым хранится логотип компании.
const LogoKey = "logo/logo.png"

// Store описывает хранилище бинарных объектов.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get возвращает содержимое объекта и его Content-Type.
	// Если объекта нет, ошибка оборачивает models.ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

var allowedExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// AllowedImage проверяет расширение файла и возвращает его в нижнем регистре
// вместе с Content-Type.
func AllowedImage(filename string) (ext, contentType string, ok bool) {
	ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	contentType, ok = allowedExtensions[ext]
	return ext, contentType, ok
}

// ContentTypeByKey определяет Content-Type по расширению ключа.
func ContentTypeByKey(key string) string {
	if _, ct, ok := AllowedImage(key); ok {
		return ct
	}
	return "application/octet-stream"
}

// ChartKey строит ключ графика вида charts/<SYMBOL>_<unix>.<ext>.
func ChartKey(symbol string, now time.Time, ext string) string {
	return fmt.Sprintf("charts/%s_%d.%s", strings.ToUpper(symbol), now.Unix(), ext)
}

// New создаёт хранилище по конфигурации. Неизвестный тип трактуется как local.
func New(cfg config.ChartStorage) (Store, error) {
	switch cfg.StorageType {
	case "s3":
		return NewS3Store(cfg)
	default:
		return NewLocalStore(cfg.LocalPath)
	}
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
