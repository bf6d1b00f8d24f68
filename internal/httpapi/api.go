package httpapi

import (
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/MagnunAVF/qr-tracker/internal"
	"github.com/MagnunAVF/qr-tracker/internal/store"
)

// Identity is asserted upstream by the auth proxy; this header is trusted.
const authUserHeader = "X-Auth-User"

const (
	localUserID = "userID"
	localQRCode = "qrCode"
)

type createCodeRequest struct {
	TargetURL string `json:"targetUrl"`
	Name      string `json:"name"`
}

type updateCodeRequest struct {
	TargetURL *string `json:"targetUrl"`
	Name      *string `json:"name"`
}

type codeWithScans struct {
	internal.QRCode
	Scans []internal.Scan `json:"scans"`
}

func authRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := strings.TrimSpace(c.Get(authUserHeader))
		if user == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals(localUserID, user)
		return c.Next()
	}
}

// requireOwnership loads the addressed code once and rejects callers who
// don't own it, so the handlers behind it never repeat the check.
func requireOwnership(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}

		code, err := s.store.GetByID(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		} else if err != nil {
			slog.Error("qr code lookup failed", "id", id, "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}

		if code.UserID != c.Locals(localUserID).(string) {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		c.Locals(localQRCode, code)
		return c.Next()
	}
}

func handleListCodes(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codes, err := s.store.ListByUser(c.UserContext(), c.Locals(localUserID).(string))
		if err != nil {
			slog.Error("failed to list qr codes", "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
		if codes == nil {
			codes = []internal.QRCode{}
		}
		return c.JSON(codes)
	}
}

func handleCreateCode(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createCodeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}
		if err := validateTargetURL(req.TargetURL); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "field": "targetUrl"})
		}

		code, err := s.store.Create(c.UserContext(), c.Locals(localUserID).(string), req.TargetURL, req.Name)
		if err != nil {
			slog.Error("failed to create qr code", "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save QR code"})
		}
		return c.Status(fiber.StatusCreated).JSON(code)
	}
}

func handleGetCode(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Locals(localQRCode).(*internal.QRCode)

		scans, err := s.store.GetScans(c.UserContext(), code.ID)
		if err != nil {
			slog.Error("failed to load scans", "id", code.ID, "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
		if scans == nil {
			scans = []internal.Scan{}
		}
		return c.JSON(codeWithScans{QRCode: *code, Scans: scans})
	}
}

func handleUpdateCode(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Locals(localQRCode).(*internal.QRCode)

		var req updateCodeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}
		if req.TargetURL != nil {
			if err := validateTargetURL(*req.TargetURL); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "field": "targetUrl"})
			}
		}

		updated, err := s.store.Update(c.UserContext(), code.ID, store.UpdateFields{
			TargetURL: req.TargetURL,
			Name:      req.Name,
		})
		if errors.Is(err, store.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		} else if err != nil {
			slog.Error("failed to update qr code", "id", code.ID, "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update QR code"})
		}

		if err := s.cache.Invalidate(c.UserContext(), code.Slug); err != nil {
			slog.Warn("slug cache invalidation failed", "slug", code.Slug, "err", err)
		}
		return c.JSON(updated)
	}
}

func handleDeleteCode(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Locals(localQRCode).(*internal.QRCode)

		err := s.store.Delete(c.UserContext(), code.ID)
		if errors.Is(err, store.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		} else if err != nil {
			slog.Error("failed to delete qr code", "id", code.ID, "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not delete QR code"})
		}

		if err := s.cache.Invalidate(c.UserContext(), code.Slug); err != nil {
			slog.Warn("slug cache invalidation failed", "slug", code.Slug, "err", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func handleGetStats(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Locals(localQRCode).(*internal.QRCode)

		scans, err := s.store.GetScans(c.UserContext(), code.ID)
		if err != nil {
			slog.Error("failed to load scans", "id", code.ID, "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
		if scans == nil {
			scans = []internal.Scan{}
		}
		return c.JSON(scans)
	}
}

func validateTargetURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("target URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("target URL must be an absolute http(s) URL")
	}
	return nil
}
