package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/MagnunAVF/qr-tracker/internal"
	"github.com/MagnunAVF/qr-tracker/internal/geo"
	"github.com/MagnunAVF/qr-tracker/internal/logger"
	"github.com/MagnunAVF/qr-tracker/internal/metrics"
	"github.com/MagnunAVF/qr-tracker/internal/store"
)

// CountryResolver is satisfied by *geo.Client.
type CountryResolver interface {
	Country(ctx context.Context, ip string) (string, error)
}

// Recorder turns a scan event into a persisted Scan row plus the owning
// code's counter increment. Geolocation is best-effort: any lookup failure
// becomes the Unknown sentinel, never an error.
type Recorder struct {
	store store.Store
	geo   CountryResolver
}

func NewRecorder(st store.Store, resolver CountryResolver) *Recorder {
	return &Recorder{store: st, geo: resolver}
}

func (r *Recorder) Record(ctx context.Context, ev Event) error {
	country := geo.UnknownCountry
	if geo.Lookupable(ev.ClientIP) {
		c, err := r.geo.Country(ctx, ev.ClientIP)
		if err != nil {
			metrics.GeoLookupFailures.Inc()
			logger.FromContext(ctx).Warn("geo lookup failed", "ip", ev.ClientIP, "err", err)
		} else {
			country = c
		}
	}

	sc := &internal.Scan{
		QRCodeID:  ev.QRCodeID,
		UserAgent: ev.UserAgent,
		Country:   country,
		ScannedAt: time.Now().UTC(),
	}
	if err := r.store.RecordScan(ctx, sc); err != nil {
		metrics.ScanRecordFailures.Inc()
		return fmt.Errorf("failed to record scan for code %d: %w", ev.QRCodeID, err)
	}

	metrics.ScansRecorded.Inc()
	return nil
}
