package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

const stagedUploadsCreateMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters { name value }
    }
    userErrors { field message }
  }
}`

type stagedTarget struct {
	URL         string
	ResourceURL string
	Parameters  map[string]string
}

func (c *Client) createStagedUpload(ctx context.Context, filename, mimeType string, size int) (stagedTarget, error) {
	resp, err := c.Execute(ctx, stagedUploadsCreateMutation, map[string]any{
		"input": []any{
			map[string]any{
				"filename":   filename,
				"mimeType":   mimeType,
				"fileSize":   strconv.Itoa(size),
				"resource":   "IMAGE",
				"httpMethod": "POST",
			},
		},
	})
	if err != nil {
		return stagedTarget{}, err
	}
	if err := resp.Err("stagedUploadsCreate"); err != nil {
		return stagedTarget{}, err
	}

	var payload struct {
		StagedUploadsCreate struct {
			StagedTargets []struct {
				URL         string `json:"url"`
				ResourceURL string `json:"resourceUrl"`
				Parameters  []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"parameters"`
			} `json:"stagedTargets"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return stagedTarget{}, fmt.Errorf("catalog: decode stagedUploadsCreate: %w", err)
	}
	if err := mutationError("stagedUploadsCreate", payload.StagedUploadsCreate.UserErrors); err != nil {
		return stagedTarget{}, err
	}
	if len(payload.StagedUploadsCreate.StagedTargets) == 0 {
		return stagedTarget{}, &MutationError{Operation: "stagedUploadsCreate", UserErrors: []UserError{{Message: "no staged target returned"}}}
	}

	raw := payload.StagedUploadsCreate.StagedTargets[0]
	target := stagedTarget{
		URL:         raw.URL,
		ResourceURL: raw.ResourceURL,
		Parameters:  make(map[string]string, len(raw.Parameters)),
	}
	for _, param := range raw.Parameters {
		target.Parameters[param.Name] = param.Value
	}
	return target, nil
}

func (c *Client) uploadToStagedTarget(ctx context.Context, target stagedTarget, filename string, content []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range target.Parameters {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("catalog: write upload field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("catalog: create upload part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("catalog: write upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("catalog: finalise upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: staged upload status %d", ErrTransport, resp.StatusCode)
	}
	return nil
}

const fileCreateMutation = `
mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files { id }
    userErrors { field message }
  }
}`

func (c *Client) createFile(ctx context.Context, resourceURL string) (string, error) {
	resp, err := c.Execute(ctx, fileCreateMutation, map[string]any{
		"files": []any{
			map[string]any{
				"contentType":    "IMAGE",
				"originalSource": resourceURL,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if err := resp.Err("fileCreate"); err != nil {
		return "", err
	}

	var payload struct {
		FileCreate struct {
			Files []struct {
				ID string `json:"id"`
			} `json:"files"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"fileCreate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return "", fmt.Errorf("catalog: decode fileCreate: %w", err)
	}
	if err := mutationError("fileCreate", payload.FileCreate.UserErrors); err != nil {
		return "", err
	}
	if len(payload.FileCreate.Files) == 0 {
		return "", &MutationError{Operation: "fileCreate", UserErrors: []UserError{{Message: "no file returned"}}}
	}
	return payload.FileCreate.Files[0].ID, nil
}

const fileURLQuery = `
query fileUrl($id: ID!) {
  node(id: $id) {
    ... on MediaImage {
      image { url }
    }
  }
}`

// The permanent URL only becomes queryable after the remote service has
// indexed the upload, so the lookup is retried with backoff.
func (c *Client) waitForFileURL(ctx context.Context, fileID string) (string, error) {
	for attempt := 0; attempt < c.filePollAttempts; attempt++ {
		if attempt > 0 {
			delay := c.filePollBase * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.Execute(ctx, fileURLQuery, map[string]any{"id": fileID})
		if err != nil {
			return "", err
		}
		if !resp.Success {
			continue
		}

		var payload struct {
			Node *struct {
				Image *struct {
					URL string `json:"url"`
				} `json:"image"`
			} `json:"node"`
		}
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return "", fmt.Errorf("catalog: decode file url: %w", err)
		}
		if payload.Node != nil && payload.Node.Image != nil && payload.Node.Image.URL != "" {
			return payload.Node.Image.URL, nil
		}
	}
	return "", fmt.Errorf("catalog: file %s url not available after %d attempts", fileID, c.filePollAttempts)
}

// UploadedFile identifies a stored remote file and its permanent URL.
type UploadedFile struct {
	FileID string
	URL    string
}

// UploadFile stages the content, registers it as a permanent file, and
// waits for the permanent URL to become available.
func (c *Client) UploadFile(ctx context.Context, filename, mimeType string, content []byte) (UploadedFile, error) {
	target, err := c.createStagedUpload(ctx, filename, mimeType, len(content))
	if err != nil {
		return UploadedFile{}, err
	}
	if err := c.uploadToStagedTarget(ctx, target, filename, content); err != nil {
		return UploadedFile{}, err
	}
	fileID, err := c.createFile(ctx, target.ResourceURL)
	if err != nil {
		return UploadedFile{}, err
	}
	url, err := c.waitForFileURL(ctx, fileID)
	if err != nil {
		return UploadedFile{}, err
	}
	return UploadedFile{FileID: fileID, URL: url}, nil
}
