package store

import (
	"context"
	"errors"

	"github.com/MagnunAVF/qr-tracker/internal"
)

var ErrNotFound = errors.New("qr code not found")

// UpdateFields carries the owner-mutable fields of a QR code. Nil means
// leave unchanged.
type UpdateFields struct {
	TargetURL *string
	Name      *string
}

// Store is the persistence contract shared by the API service and the
// scan worker.
type Store interface {
	Create(ctx context.Context, userID, targetURL, name string) (*internal.QRCode, error)
	GetBySlug(ctx context.Context, slug string) (*internal.QRCode, error)
	GetByID(ctx context.Context, id int64) (*internal.QRCode, error)
	ListByUser(ctx context.Context, userID string) ([]internal.QRCode, error)
	Update(ctx context.Context, id int64, fields UpdateFields) (*internal.QRCode, error)
	Delete(ctx context.Context, id int64) error

	RecordScan(ctx context.Context, scan *internal.Scan) error
	GetScans(ctx context.Context, codeID int64) ([]internal.Scan, error)
}
