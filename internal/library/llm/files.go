package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	errors "github.com/Laisky/errors/v2"
)

// filePurpose is sent with every upload, the service owns the bytes afterwards.
const filePurpose = "assistants"

// UploadFile pushes file content to the external service and
// returns the opaque file identifier the service assigned.
func (c *Client) UploadFile(ctx context.Context,
	apiKey, filename string, content []byte) (fileID string, err error) {
	if c == nil {
		return "", errors.New("llm client is nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.New("missing api key")
	}
	if strings.TrimSpace(filename) == "" {
		return "", errors.New("missing filename")
	}
	if len(content) == 0 {
		return "", errors.New("empty file content")
	}

	body := new(bytes.Buffer)
	form := multipart.NewWriter(body)
	if err := form.WriteField("purpose", filePurpose); err != nil {
		return "", errors.Wrap(err, "write purpose field")
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", errors.Wrap(err, "create form file")
	}
	if _, err = part.Write(content); err != nil {
		return "", errors.Wrap(err, "write file content")
	}
	if err = form.Close(); err != nil {
		return "", errors.Wrap(err, "close form")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/v1/files", body)
	if err != nil {
		return "", errors.Wrap(err, "build file request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "call files endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", errors.Errorf("files endpoint status %d: %s",
			resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(err, "decode files response")
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return "", errors.New("files response has no id")
	}

	return decoded.ID, nil
}
