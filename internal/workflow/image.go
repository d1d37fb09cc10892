package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProductImage references the user supplied product photo. Ref is the only
// field the workflow depends on; the remaining fields describe it.
type ProductImage struct {
	Ref         string `json:"ref"`
	StorageKey  string `json:"storage_key,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Demo        bool   `json:"demo,omitempty"`
}

// Stored reports whether the image is backed by a blob in storage.
func (p ProductImage) Stored() bool {
	return p.StorageKey != ""
}

// DemoImage returns the product image used by the demo shortcut.
func DemoImage() ProductImage {
	return ProductImage{
		Ref:      DemoImageURL,
		Filename: "demo-product.jpg",
		Demo:     true,
	}
}

// Result is one generated roomset image. Results are never mutated after
// creation.
type Result struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// DownloadName is the filename offered when the result is saved.
func (r Result) DownloadName() string {
	return fmt.Sprintf("roomset-%s.jpg", r.ID)
}
