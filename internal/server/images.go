package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asem-pro/maqal/internal/retry"
	"github.com/asem-pro/maqal/provider"
)

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	Image string `json:"image"`
}

// handleImage synthesizes a single image outside any agent session.
// Rate limits are retried with the same backoff the agent tool uses.
func (s *Server) handleImage(c echo.Context) error {
	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}

	policy := retry.DefaultPolicy(func(err error) bool {
		if provider.IsRateLimited(err) {
			s.metrics.RecordRemoteRetry()
			return true
		}
		return false
	})

	image, err := retry.Do(c.Request().Context(), policy, func(ctx context.Context) (string, error) {
		return s.images.Generate(ctx, prompt)
	})
	if err != nil {
		s.logger.Printf("image synthesis failed: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "image generation failed")
	}
	return c.JSON(http.StatusOK, imageResponse{Image: image})
}
