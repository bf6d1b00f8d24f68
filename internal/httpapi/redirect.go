package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MagnunAVF/qr-tracker/internal/metrics"
	"github.com/MagnunAVF/qr-tracker/internal/scan"
	"github.com/MagnunAVF/qr-tracker/internal/store"
)

const publishTimeout = 5 * time.Second

// handleRedirect resolves a public slug and answers with a redirect to the
// continuation page. Scan recording is dispatched fire-and-forget; the
// visitor never waits on it and never sees its failures.
func handleRedirect(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		ctx := c.UserContext()

		var codeID int64

		cached, found, err := s.cache.Get(ctx, slug)
		if err != nil {
			slog.Warn("slug cache read failed", "slug", slug, "err", err)
		}
		if found {
			metrics.SlugCacheHits.Inc()
			codeID = cached.ID
		} else {
			metrics.SlugCacheMisses.Inc()
			code, err := s.store.GetBySlug(ctx, slug)
			if errors.Is(err, store.ErrNotFound) {
				metrics.RedirectsTotal.WithLabelValues("miss").Inc()
				return c.Status(fiber.StatusNotFound).SendString("QR Code not found")
			} else if err != nil {
				slog.Error("slug lookup failed", "slug", slug, "err", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
			}
			codeID = code.ID

			if err := s.cache.Set(ctx, code); err != nil {
				slog.Warn("slug cache write failed", "slug", slug, "err", err)
			}
		}

		// Everything the detached task needs is copied out of the fiber
		// context here: fasthttp reuses it after the response is sent.
		ev := scan.Event{
			QRCodeID:  codeID,
			Slug:      slug,
			UserAgent: c.Get("User-Agent"),
			ClientIP:  clientIP(c),
			Timestamp: time.Now().UTC(),
		}
		go s.dispatchScan(ev)

		metrics.RedirectsTotal.WithLabelValues("hit").Inc()
		return c.Redirect("/continue/"+slug, fiber.StatusFound)
	}
}

// handleContinue serves the client application's entry document; slug
// routing beyond this point belongs to the frontend.
func handleContinue(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendFile(filepath.Join(s.publicDir, "index.html"))
	}
}

func (s *Server) dispatchScan(ev scan.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scan dispatch panicked", "slug", ev.Slug, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.Error("failed to publish scan event", "slug", ev.Slug, "err", err)
	}
}

// clientIP prefers the geolocation proxy header, then the first
// forwarded-for hop, then the raw connection address.
func clientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}
