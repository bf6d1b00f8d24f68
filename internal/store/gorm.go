package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MagnunAVF/qr-tracker/internal"
)

// slugCreateAttempts bounds the generate-and-retry loop on slug collisions.
// The unique index on slug is the source of truth, not the generator.
const slugCreateAttempts = 5

const recentScansLimit = 50

type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a *gorm.DB opened with TranslateError so duplicate
// slugs surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, userID, targetURL, name string) (*internal.QRCode, error) {
	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		code := &internal.QRCode{
			UserID:    userID,
			Slug:      internal.NewSlug(),
			TargetURL: targetURL,
			Name:      name,
		}
		err := s.db.WithContext(ctx).Create(code).Error
		if err == nil {
			return code, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, fmt.Errorf("failed to create qr code: %w", err)
	}
	return nil, fmt.Errorf("failed to allocate a unique slug after %d attempts", slugCreateAttempts)
}

func (s *gormStore) GetBySlug(ctx context.Context, slug string) (*internal.QRCode, error) {
	var code internal.QRCode
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (s *gormStore) GetByID(ctx context.Context, id int64) (*internal.QRCode, error) {
	var code internal.QRCode
	err := s.db.WithContext(ctx).First(&code, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (s *gormStore) ListByUser(ctx context.Context, userID string) ([]internal.QRCode, error) {
	var codes []internal.QRCode
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *gormStore) Update(ctx context.Context, id int64, fields UpdateFields) (*internal.QRCode, error) {
	values := map[string]interface{}{}
	if fields.TargetURL != nil {
		values["target_url"] = *fields.TargetURL
	}
	if fields.Name != nil {
		values["name"] = *fields.Name
	}

	if len(values) > 0 {
		// Column-targeted update so a concurrent scans_count increment is
		// never clobbered.
		res := s.db.WithContext(ctx).Model(&internal.QRCode{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetByID(ctx, id)
}

func (s *gormStore) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("qr_code_id = ?", id).Delete(&internal.Scan{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&internal.QRCode{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RecordScan inserts the scan row and bumps the owning code's counter in
// one transaction. The increment is a SQL expression, so concurrent scans
// on the same code never lose updates.
func (s *gormStore) RecordScan(ctx context.Context, scan *internal.Scan) error {
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now().UTC()
	}
	if scan.Country == "" {
		scan.Country = "Unknown"
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scan).Error; err != nil {
			return err
		}
		res := tx.Model(&internal.QRCode{}).
			Where("id = ?", scan.QRCodeID).
			UpdateColumn("scans_count", gorm.Expr("scans_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Code deleted since the redirect resolved; roll the scan back
			// instead of leaving an orphan row.
			return ErrNotFound
		}
		return nil
	})
}

func (s *gormStore) GetScans(ctx context.Context, codeID int64) ([]internal.Scan, error) {
	var scans []internal.Scan
	err := s.db.WithContext(ctx).
		Where("qr_code_id = ?", codeID).
		Order("scanned_at DESC").
		Limit(recentScansLimit).
		Find(&scans).Error
	if err != nil {
		return nil, err
	}
	return scans, nil
}
