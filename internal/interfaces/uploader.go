package interfaces

import "context"

// Uploader stores image bytes under folder/publicID and returns the public URL.
type Uploader interface {
	UploadBytes(ctx context.Context, folder string, publicID string, b []byte) (string, error)
}
