// Package httpapi holds the Fiber handlers for the public redirect
// pipeline and the owner-facing QR code API.
package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/MagnunAVF/qr-tracker/internal"
	"github.com/MagnunAVF/qr-tracker/internal/cache"
	"github.com/MagnunAVF/qr-tracker/internal/scan"
	"github.com/MagnunAVF/qr-tracker/internal/store"
)

// SlugCache is satisfied by *cache.SlugCache.
type SlugCache interface {
	Get(ctx context.Context, slug string) (*cache.CachedCode, bool, error)
	Set(ctx context.Context, code *internal.QRCode) error
	Invalidate(ctx context.Context, slug string) error
}

type Server struct {
	store     store.Store
	cache     SlugCache
	publisher scan.Publisher
	publicDir string
}

func NewServer(st store.Store, sc SlugCache, pub scan.Publisher, publicDir string) *Server {
	if publicDir == "" {
		publicDir = "dist/public"
	}
	return &Server{store: st, cache: sc, publisher: pub, publicDir: publicDir}
}

func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Get("/s/:slug", handleRedirect(s))
	app.Get("/continue/:slug", handleContinue(s))

	api := app.Group("/api", authRequired())
	api.Get("/qr", handleListCodes(s))
	api.Post("/qr", handleCreateCode(s))
	api.Get("/qr/:id", requireOwnership(s), handleGetCode(s))
	api.Patch("/qr/:id", requireOwnership(s), handleUpdateCode(s))
	api.Delete("/qr/:id", requireOwnership(s), handleDeleteCode(s))
	api.Get("/qr/:id/stats", requireOwnership(s), handleGetStats(s))
}
