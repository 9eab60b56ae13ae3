package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/afsalck/sme-business-suite-sub002/internal/notification"
	"github.com/afsalck/sme-business-suite-sub002/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NotificationHandler exposes the recipient-facing notification endpoints
// plus the admin trigger for the expiry batch.
type NotificationHandler struct {
	svc    *notification.Service
	engine *notification.Engine
}

func NewNotificationHandler(svc *notification.Service, engine *notification.Engine) *NotificationHandler {
	return &NotificationHandler{svc: svc, engine: engine}
}

// RunChecks runs the full expiry batch on demand. The batch isolates per-scan
// failures, so this always answers 200 with per-scan counts and failures.
func (h *NotificationHandler) RunChecks(c echo.Context) error {
	result := h.engine.RunAllExpiryChecks(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{
		"created":  result.Created,
		"failures": result.FailureMessages(),
	})
}

// List returns the authenticated user's notifications, newest first. Pass
// ?unread=true to exclude read ones.
func (h *NotificationHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tenantID, _ := c.Get("tenant_id").(uint)
	unreadOnly := c.QueryParam("unread") == "true"

	notifications, err := h.svc.ListForUser(c.Request().Context(), userID, tenantID, unreadOnly)
	if err != nil {
		log.Error("Failed to list notifications", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve notifications"})
	}

	return c.JSON(http.StatusOK, notifications)
}

// MarkRead flips a single notification to read. A notification that does not
// exist or belongs to someone else reports not-found either way.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification ID"})
	}

	if err := h.svc.MarkRead(c.Request().Context(), userID, uint(id)); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		log.Error("Failed to mark notification read", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update notification"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "notification marked as read"})
}

// MarkAllRead flips every unread notification of the authenticated user
// within their tenant.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tenantID, _ := c.Get("tenant_id").(uint)

	updated, err := h.svc.MarkAllRead(c.Request().Context(), userID, tenantID)
	if err != nil {
		log.Error("Failed to mark all notifications read", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update notifications"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "notifications marked as read",
		"updated": updated,
	})
}
