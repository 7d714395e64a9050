package uploads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/model"
)

// helperPNG - минимальный валидный PNG для проверки MIME-типа
var helperPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestUpload_Success(t *testing.T) {
	assertions := assert.New(t)

	var gotSlot string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertions.NoError(r.ParseMultipartForm(MaxUploadSize))
		gotSlot = r.FormValue("slot")
		_, _, err := r.FormFile("file")
		assertions.NoError(err)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example/doc-1.png"})
	}))
	defer server.Close()

	uploader := NewClient(server.URL)
	url, err := uploader.Upload(context.Background(), model.SlotBankReceipt, "receipt.png", helperPNG)

	assertions.NoError(err)
	assertions.Equal("https://cdn.example/doc-1.png", url)
	assertions.Equal("bankReceipt", gotSlot)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	assertions := assert.New(t)

	// До хранилища запрос не доходит
	uploader := NewClient("http://storage.invalid")
	data := make([]byte, MaxUploadSize+1)

	_, err := uploader.Upload(context.Background(), model.SlotBankReceipt, "huge.png", data)
	assertions.ErrorIs(err, ErrFileTooLarge)
}

func TestUpload_RejectsNonImage(t *testing.T) {
	assertions := assert.New(t)

	uploader := NewClient("http://storage.invalid")

	_, err := uploader.Upload(context.Background(), model.SlotBankReceipt, "doc.pdf", []byte("%PDF-1.7 not an image"))
	assertions.ErrorIs(err, ErrNotAnImage)
}

func TestUpload_StorageRejection(t *testing.T) {
	assertions := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInsufficientStorage)
	}))
	defer server.Close()

	uploader := NewClient(server.URL)
	_, err := uploader.Upload(context.Background(), model.SlotBankReceipt, "receipt.png", helperPNG)
	assertions.Error(err)
}

func TestUpload_EmptyURLInResponse(t *testing.T) {
	assertions := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	uploader := NewClient(server.URL)
	_, err := uploader.Upload(context.Background(), model.SlotBankReceipt, "receipt.png", helperPNG)
	assertions.Error(err)
}
