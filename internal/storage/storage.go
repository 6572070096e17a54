package storage

import (
	"context"
	"errors"
	"io"
)

// ErrDisabled is returned by Disabled when object storage is not configured.
var ErrDisabled = errors.New("object storage is not configured")

// ObjectStore holds uploaded binary objects such as book covers.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Enabled() bool
}

// Disabled is the ObjectStore used when no MinIO endpoint is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader, int64, string) error { return ErrDisabled }
func (Disabled) Delete(context.Context, string) error                           { return ErrDisabled }
func (Disabled) PublicURL(string) string                                        { return "" }
func (Disabled) Enabled() bool                                                  { return false }
