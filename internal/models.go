package internal

import (
	"time"
)

type QRCode struct {
	ID         int64     `gorm:"primaryKey;type:bigint" json:"id"`
	UserID     string    `gorm:"type:varchar(64);index;not null" json:"userId"`
	Slug       string    `gorm:"type:varchar(12);uniqueIndex;not null" json:"slug"`
	TargetURL  string    `gorm:"type:text;not null" json:"targetUrl"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	ScansCount int64     `gorm:"not null;default:0" json:"scansCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Scan struct {
	ID        int64     `gorm:"primaryKey;type:bigint" json:"id"`
	QRCodeID  int64     `gorm:"index;not null" json:"qrCodeId"`
	UserAgent string    `gorm:"type:text" json:"userAgent"`
	Country   string    `gorm:"type:varchar(100);not null;default:'Unknown'" json:"country"`
	ScannedAt time.Time `gorm:"index" json:"scannedAt"`
}
