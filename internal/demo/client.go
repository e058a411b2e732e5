package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"promoagent/internal/media/sniffer"
	"promoagent/internal/models"
)

// APIClient talks to the promoagent API and implements Backend.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
}

var _ Backend = (*APIClient)(nil)

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &APIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *APIClient) Upload(ctx context.Context, file models.UploadedFile) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	header.Set("Content-Type", file.MediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/api/upload", writer.FormDataContentType(), body, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *APIClient) Generate(ctx context.Context, req models.GenerationRequest) (models.GeneratedResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("pdf_url", req.PDFURL); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("write pdf_url: %w", err)
	}
	if err := writer.WriteField("user_query", req.UserQuery); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("write user_query: %w", err)
	}
	if err := writer.Close(); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("close writer: %w", err)
	}

	var out models.GeneratedResult
	if err := c.post(ctx, "/api/generate", writer.FormDataContentType(), body, &out); err != nil {
		return models.GeneratedResult{}, err
	}
	return out, nil
}

func (c *APIClient) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, eb.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Download saves the post text and its image into dir and returns the
// written paths.
func (c *APIClient) Download(ctx context.Context, result models.GeneratedResult, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	textPath := filepath.Join(dir, "post.txt")
	if err := os.WriteFile(textPath, []byte(result.Text+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write post text: %w", err)
	}
	written := []string{textPath}

	if result.ImageURL == "" {
		return written, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.ImageURL, nil)
	if err != nil {
		return written, fmt.Errorf("create image request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return written, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return written, fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return written, fmt.Errorf("read image: %w", err)
	}

	imagePath := filepath.Join(dir, "post."+sniffer.Extension(sniffer.MIMEOf(data)))
	if err := os.WriteFile(imagePath, data, 0o644); err != nil {
		return written, fmt.Errorf("write image: %w", err)
	}
	return append(written, imagePath), nil
}

// LoadFile reads a local file and declares its media type from the
// extension, falling back to content sniffing, as a browser would.
func LoadFile(path string) (models.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("read %s: %w", path, err)
	}

	mediaType := ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		mediaType = sniffer.MIMEPDF
	case ".png":
		mediaType = "image/png"
	case ".jpg", ".jpeg":
		mediaType = "image/jpeg"
	case ".txt":
		mediaType = "text/plain"
	default:
		if result, err := sniffer.DetectHead(data); err == nil {
			mediaType = result.MIME
		}
	}

	return models.UploadedFile{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Content:   data,
	}, nil
}
