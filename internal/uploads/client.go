package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/metrics"
	"storefront/internal/model"
)

//go:generate mockgen -source=client.go -destination=./mocks/uploader_mock.go -package=mocks Uploader

// MaxUploadSize - потолок размера загружаемого документа (5 МБ).
const MaxUploadSize = 5 << 20

var (
	// ErrFileTooLarge - файл превышает потолок размера.
	ErrFileTooLarge = errors.New("файл превышает допустимые 5 МБ")
	// ErrNotAnImage - файл не является изображением.
	ErrNotAnImage = errors.New("допускаются только изображения")
)

// Uploader определяет интерфейс загрузки документов во внешнее хранилище.
// Возвращаемая стабильная ссылка используется как assetReference слота.
type Uploader interface {
	Upload(ctx context.Context, slot model.SlotName, filename string, data []byte) (string, error)
}

// restyUploader - клиент внешнего объектного хранилища.
type restyUploader struct {
	client *resty.Client
	tracer trace.Tracer
}

// NewClient создает клиента хранилища документов.
func NewClient(baseURL string) Uploader {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	return &restyUploader{
		client: client,
		tracer: otel.Tracer("asset-uploader"),
	}
}

// uploadResult - ответ хранилища на успешную загрузку.
type uploadResult struct {
	URL string `json:"url"`
}

// Upload проверяет размер и MIME-тип и отправляет файл в хранилище.
// При любой ошибке ссылка не возвращается, слот остается незаполненным -
// другие слоты при этом не затрагиваются, загрузку можно повторять.
func (u *restyUploader) Upload(ctx context.Context, slot model.SlotName, filename string, data []byte) (string, error) {
	ctx, span := u.tracer.Start(ctx, "Uploader.Upload")
	defer span.End()

	if len(data) > MaxUploadSize {
		metrics.DocumentUploadErrors.WithLabelValues("too_large").Inc()
		return "", ErrFileTooLarge
	}

	// Тип определяется по содержимому файла, а не по расширению.
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		metrics.DocumentUploadErrors.WithLabelValues("bad_mime").Inc()
		return "", fmt.Errorf("%w: получен %s", ErrNotAnImage, mimeType)
	}

	var result uploadResult
	resp, err := u.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(data)).
		SetFormData(map[string]string{"slot": string(slot)}).
		SetResult(&result).
		Post("/assets")
	if err != nil {
		metrics.DocumentUploadErrors.WithLabelValues("storage_error").Inc()
		return "", fmt.Errorf("ошибка загрузки в хранилище: %w", err)
	}
	if resp.IsError() {
		metrics.DocumentUploadErrors.WithLabelValues("storage_error").Inc()
		return "", fmt.Errorf("хранилище отклонило загрузку: %s", resp.Status())
	}
	if result.URL == "" {
		metrics.DocumentUploadErrors.WithLabelValues("storage_error").Inc()
		return "", fmt.Errorf("хранилище не вернуло ссылку на файл")
	}

	return result.URL, nil
}
