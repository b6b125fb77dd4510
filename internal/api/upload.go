package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/robby/learnhub/internal/domain"
)

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent int)

// progressReader reports how much of a body of known size the transport
// has consumed.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     int
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.progress != nil && p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.progress(pct)
		}
	}
	return n, err
}

// UploadFile sends a local file as the multipart "file" part to /uploads and
// returns the stored file descriptor. progress may be nil.
func (c *Client) UploadFile(ctx context.Context, file *domain.LocalFile, progress ProgressFunc) (domain.Attachment, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to read %s: %w", file.Name, err)
	}
	if err := mw.Close(); err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	body := &progressReader{r: &buf, total: int64(buf.Len()), last: -1, progress: progress}
	req, err := c.newRequest(ctx, http.MethodPost, "/uploads", nil, body, mw.FormDataContentType())
	if err != nil {
		return domain.Attachment{}, err
	}
	req.ContentLength = body.total

	env, err := c.send(req)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to upload %s: %w", file.Name, err)
	}

	att := decodeAttachment(objectOf(env.Get("data"), "file"))
	att.Kind = domain.AttachmentFile
	if att.Title == "" {
		att.Title = file.Name
	}
	if att.Size == 0 {
		att.Size = file.Size
	}
	return att, nil
}

// Apply posts an encoded application form. It returns the backend's
// confirmation message.
func (c *Client) Apply(ctx context.Context, body io.Reader, contentType string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/applications/apply", nil, body, contentType)
	if err != nil {
		return "", err
	}
	env, err := c.send(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit application: %w", err)
	}
	return env.Get("message").String(), nil
}
