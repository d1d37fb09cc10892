// Package uploads turns a submitted product photo into the image reference
// the workflow controller stores.
//
// Processing is deliberately slow: the photo is held for a fixed delay
// before it is encoded, which stands in for the background removal step a
// real studio would perform.
package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/storage"
)

// FormField is the multipart field carrying product photos.
const FormField = "file"

const storeTimeout = 30 * time.Second

// ErrNoImage reports that none of the submitted files is an image.
var ErrNoImage = errors.New("no image in upload")

// Target receives the outcome of upload processing.
type Target interface {
	BeginUpload() error
	CompleteUpload(img workflow.ProductImage) error
	FailUpload(cause error) error
}

// File is a submitted photo read into memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Options configures a Processor.
type Options struct {
	// Delay is the simulated processing time.
	Delay time.Duration
	// MediaPath is the URL path that serves stored blobs.
	MediaPath string
	Scheduler workflow.Scheduler
	NewID     func() uuid.UUID
}

// Processor accepts product photos and hands finished references to a
// Target. With a nil store the photo is embedded as a data URI; otherwise
// it is written to the store and referenced by its media URL.
type Processor struct {
	store     storage.System
	delay     time.Duration
	mediaPath string
	scheduler workflow.Scheduler
	newID     func() uuid.UUID
	logger    *slog.Logger
}

// New creates a Processor.
func New(store storage.System, logger *slog.Logger, opts Options) *Processor {
	p := &Processor{
		store:     store,
		delay:     opts.Delay,
		mediaPath: strings.TrimSuffix(opts.MediaPath, "/"),
		scheduler: opts.Scheduler,
		newID:     opts.NewID,
		logger:    logger.With("system", "uploads"),
	}
	if p.scheduler == nil {
		p.scheduler = workflow.SystemScheduler{}
	}
	if p.newID == nil {
		p.newID = uuid.New
	}
	return p
}

// Select returns the first image among the submitted file parts. A single
// selection goes through the same check as a drop set. A part's declared
// media type is trusted when present; otherwise its content is sniffed.
func Select(headers []*multipart.FileHeader) (*File, error) {
	for _, fh := range headers {
		f, err := read(fh)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(f.ContentType, "image/") {
			return f, nil
		}
	}
	return nil, ErrNoImage
}

// Accept starts processing f for the given session. It returns once the
// target has acknowledged the upload; the reference is delivered after the
// processing delay.
func (p *Processor) Accept(target Target, session string, f *File) error {
	if err := target.BeginUpload(); err != nil {
		return err
	}

	p.logger.Info("upload accepted",
		"session", session,
		"filename", f.Name,
		"content_type", f.ContentType,
		"size", len(f.Data),
	)

	p.scheduler.AfterFunc(p.delay, func() {
		p.finish(target, session, f)
	})
	return nil
}

// Demo completes an upload with the built-in demo product immediately.
func (p *Processor) Demo(target Target) error {
	return target.CompleteUpload(workflow.DemoImage())
}

// Release deletes the stored blob behind img, if any.
func (p *Processor) Release(ctx context.Context, img workflow.ProductImage) error {
	if p.store == nil || !img.Stored() {
		return nil
	}
	if err := p.store.Delete(ctx, img.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("release %s: %w", img.StorageKey, err)
	}
	return nil
}

func (p *Processor) finish(target Target, session string, f *File) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	img, err := p.encode(ctx, session, f)
	if err != nil {
		target.FailUpload(err)
		return
	}

	if err := target.CompleteUpload(img); err != nil {
		p.logger.Debug("upload superseded", "session", session, "error", err)
		if err := p.Release(ctx, img); err != nil {
			p.logger.Warn("release superseded upload failed", "error", err)
		}
		return
	}

	p.logger.Info("upload processed", "session", session, "stored", img.Stored())
}

func (p *Processor) encode(ctx context.Context, session string, f *File) (workflow.ProductImage, error) {
	img := workflow.ProductImage{
		Filename:    f.Name,
		ContentType: f.ContentType,
		SizeBytes:   int64(len(f.Data)),
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data)); err == nil {
		img.Width = cfg.Width
		img.Height = cfg.Height
	}

	if p.store == nil {
		img.Ref = DataURI(f.ContentType, f.Data)
		return img, nil
	}

	key := StorageKey(session, p.newID(), f.Name)
	if err := p.store.Upload(ctx, key, bytes.NewReader(f.Data), f.ContentType); err != nil {
		return workflow.ProductImage{}, fmt.Errorf("store product image: %w", err)
	}

	img.StorageKey = key
	img.Ref = p.mediaPath + "/" + key
	return img, nil
}

// DataURI embeds data as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// StorageKey builds the blob key for a product photo.
func StorageKey(session string, id uuid.UUID, filename string) string {
	return path.Join("products", session, id.String(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '-'
	}, name)

	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "product"
	}
	return name
}

func read(fh *multipart.FileHeader) (*File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	return &File{
		Name:        fh.Filename,
		ContentType: contentType(fh.Header.Get("Content-Type"), data),
		Data:        data,
	}, nil
}

func contentType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
