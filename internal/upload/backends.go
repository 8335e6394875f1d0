package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
)

// Backend is one image hosting service.
type Backend interface {
	Name() string
	Upload(ctx context.Context, path string) (string, error)
}

// Litterbox is the anonymous ephemeral host. It needs no credential.
type Litterbox struct {
	endpoint string
	expiry   string
	client   *httpclient.Client
}

func NewLitterbox(endpoint, expiry string, client *httpclient.Client) *Litterbox {
	return &Litterbox{endpoint: endpoint, expiry: expiry, client: client}
}

func (b *Litterbox) Name() string { return "litterbox" }

func (b *Litterbox) Upload(ctx context.Context, path string) (string, error) {
	req, err := multipartRequest(b.endpoint, path, "fileToUpload", map[string]string{
		"reqtype": "fileupload",
		"time":    b.expiry,
	})
	if err != nil {
		return "", err
	}

	body, err := b.client.Send(ctx, req)
	if err != nil {
		return "", err
	}
	link := strings.TrimSpace(string(body))
	if !strings.HasPrefix(link, "http") {
		return "", apperrors.NewMalformedResponseError(b.Name(), fmt.Errorf("unexpected reply %q", link))
	}
	return link, nil
}

// ImgBB uploads base64 form data with an expiry in seconds.
type ImgBB struct {
	endpoint string
	apiKey   string
	expiry   string
	client   *httpclient.Client
}

func NewImgBB(endpoint, apiKey, expiry string, client *httpclient.Client) *ImgBB {
	return &ImgBB{endpoint: endpoint, apiKey: apiKey, expiry: expiry, client: client}
}

func (b *ImgBB) Name() string { return "imgbb" }

func (b *ImgBB) Upload(ctx context.Context, path string) (string, error) {
	if b.apiKey == "" {
		return "", apperrors.NewNotConfiguredError(b.Name(), "IMGBB_API_KEY가 설정되지 않았습니다.")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewImageNotFoundError(path)
	}

	form := url.Values{}
	form.Set("key", b.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(data))
	form.Set("expiration", b.expiry)

	req, err := http.NewRequest(http.MethodPost, b.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.NewProviderRequestError(b.Name(), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var reply struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := b.client.SendJSON(ctx, req, &reply); err != nil {
		return "", err
	}
	if !reply.Success || reply.Data.URL == "" {
		return "", apperrors.NewMalformedResponseError(b.Name(), fmt.Errorf("upload not successful"))
	}
	return reply.Data.URL, nil
}

// FreeImage uploads a multipart "source" field.
type FreeImage struct {
	endpoint string
	apiKey   string
	client   *httpclient.Client
}

func NewFreeImage(endpoint, apiKey string, client *httpclient.Client) *FreeImage {
	return &FreeImage{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (b *FreeImage) Name() string { return "freeimage" }

func (b *FreeImage) Upload(ctx context.Context, path string) (string, error) {
	if b.apiKey == "" {
		return "", apperrors.NewNotConfiguredError(b.Name(), "FREEIMAGE_API_KEY가 설정되지 않았습니다.")
	}
	req, err := multipartRequest(b.endpoint, path, "source", map[string]string{
		"key":    b.apiKey,
		"format": "json",
	})
	if err != nil {
		return "", err
	}

	var reply struct {
		StatusCode int `json:"status_code"`
		Image      struct {
			URL string `json:"url"`
		} `json:"image"`
	}
	if err := b.client.SendJSON(ctx, req, &reply); err != nil {
		return "", err
	}
	if reply.StatusCode != http.StatusOK || reply.Image.URL == "" {
		return "", apperrors.NewMalformedResponseError(b.Name(), fmt.Errorf("status_code %d", reply.StatusCode))
	}
	return reply.Image.URL, nil
}

func multipartRequest(endpoint, path, fileField string, fields map[string]string) (*http.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewImageNotFoundError(path)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	part, err := w.CreateFormFile(fileField, filepath.Base(path))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := w.Close(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}
