// Package attach maintains the ordered file/link attachments of a stream post
// or a task. Files are checked for count, type and size before any upload.
package attach

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/validate"
	"go.uber.org/zap"
)

// DefaultMaxItems and MaxFileSize are the default limits.
const (
	DefaultMaxItems = 10
	MaxFileSize     = 50 << 20
)

// DefaultAllowedTypes is the MIME allow-list for uploaded files.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/zip",
	"text/plain",
	"text/csv",
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"video/mp4",
}

var (
	// ErrTooMany indicates the attachment limit was reached.
	ErrTooMany = errors.New("too many attachments")
	// ErrUnsupportedType indicates a file type outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge indicates a file above the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidLink indicates a link without a valid URL or title.
	ErrInvalidLink = errors.New("invalid link")
	// ErrNoItem indicates an index outside the list.
	ErrNoItem = errors.New("no such attachment")
)

// Context is where the attachments are consumed.
type Context int

const (
	// ContextStream is a stream post; links cannot be marked required.
	ContextStream Context = iota
	// ContextTask is a task's resources; links can be marked required.
	ContextTask
)

// Uploader stores a local file and returns its descriptor. *api.Client implements it.
type Uploader interface {
	UploadFile(ctx context.Context, file *domain.LocalFile, progress api.ProgressFunc) (domain.Attachment, error)
}

// Aggregator is the ordered attachment list. It is not safe for concurrent
// use: run Transfer off the UI loop, then Add the result on it.
type Aggregator struct {
	items    []domain.Attachment
	uploader Uploader
	context  Context
	maxItems int
	maxSize  int64
	allowed  []string
	logger   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMaxItems overrides DefaultMaxItems. Values below one keep the default.
func WithMaxItems(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxItems = n
		}
	}
}

// WithMaxSize overrides MaxFileSize.
func WithMaxSize(n int64) Option {
	return func(a *Aggregator) { a.maxSize = n }
}

// WithAllowedTypes overrides DefaultAllowedTypes.
func WithAllowedTypes(types ...string) Option {
	return func(a *Aggregator) { a.allowed = types }
}

// WithContext sets the consumption context.
func WithContext(c Context) Option {
	return func(a *Aggregator) { a.context = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// New creates an empty aggregator.
func New(uploader Uploader, opts ...Option) *Aggregator {
	a := &Aggregator{
		uploader: uploader,
		maxItems: DefaultMaxItems,
		maxSize:  MaxFileSize,
		allowed:  DefaultAllowedTypes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Inspect stats path and sniffs its content type.
func Inspect(path string) (*domain.LocalFile, error) {
	path = strings.TrimSpace(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}
	return &domain.LocalFile{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: mt.String(),
	}, nil
}

// Items returns a copy of the list.
func (a *Aggregator) Items() []domain.Attachment {
	out := make([]domain.Attachment, len(a.items))
	copy(out, a.items)
	return out
}

// Len returns the number of attachments.
func (a *Aggregator) Len() int {
	return len(a.items)
}

// Context returns the consumption context.
func (a *Aggregator) Context() Context {
	return a.context
}

// Load replaces the list, e.g. with a stream's existing attachments.
func (a *Aggregator) Load(items []domain.Attachment) {
	a.items = append([]domain.Attachment(nil), items...)
}

// Check validates file against the count, type and size limits.
func (a *Aggregator) Check(file *domain.LocalFile) error {
	if len(a.items) >= a.maxItems {
		return fmt.Errorf("%w: at most %d allowed", ErrTooMany, a.maxItems)
	}
	if !mimetype.EqualsAny(file.MimeType, a.allowed...) {
		return fmt.Errorf("%w: %s is %s", ErrUnsupportedType, file.Name, displayType(file.MimeType))
	}
	if file.Size > a.maxSize {
		return fmt.Errorf("%w: %s exceeds %d MB", ErrFileTooLarge, file.Name, a.maxSize>>20)
	}
	return nil
}

// Transfer checks file and uploads it without touching the list.
// No upload is attempted when the check fails.
func (a *Aggregator) Transfer(ctx context.Context, file *domain.LocalFile, progress api.ProgressFunc) (domain.Attachment, error) {
	if err := a.Check(file); err != nil {
		return domain.Attachment{}, err
	}
	att, err := a.uploader.UploadFile(ctx, file, progress)
	if err != nil {
		a.logger.Warn("upload failed", zap.String("file", file.Name), zap.Error(err))
		return domain.Attachment{}, fmt.Errorf("failed to upload %s: %w", file.Name, err)
	}
	a.logger.Info("file uploaded", zap.String("file", file.Name), zap.String("url", att.URL))
	return att, nil
}

// Add appends an uploaded file or a link.
func (a *Aggregator) Add(att domain.Attachment) error {
	if len(a.items) >= a.maxItems {
		return fmt.Errorf("%w: at most %d allowed", ErrTooMany, a.maxItems)
	}
	a.items = append(a.items, att)
	return nil
}

// AddLink appends a link. The title defaults to the URL.
func (a *Aggregator) AddLink(rawURL, title, description string) error {
	rawURL = strings.TrimSpace(rawURL)
	if msg := validate.URL(rawURL); msg != "" {
		return fmt.Errorf("%w: %s", ErrInvalidLink, msg)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = rawURL
	}
	return a.Add(domain.Attachment{
		Kind:        domain.AttachmentLink,
		URL:         rawURL,
		Title:       title,
		Description: strings.TrimSpace(description),
	})
}

// Remove deletes the item at i.
func (a *Aggregator) Remove(i int) error {
	if i < 0 || i >= len(a.items) {
		return ErrNoItem
	}
	a.items = append(a.items[:i:i], a.items[i+1:]...)
	return nil
}

// ToggleRequired flips the required flag of the link at i. Outside the task
// context, and for files, it does nothing.
func (a *Aggregator) ToggleRequired(i int) error {
	if i < 0 || i >= len(a.items) {
		return ErrNoItem
	}
	if a.context != ContextTask || a.items[i].Kind != domain.AttachmentLink {
		return nil
	}
	a.items[i].IsRequired = !a.items[i].IsRequired
	return nil
}

func displayType(mime string) string {
	if mime == "" {
		return "an unknown type"
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}
