package services

import (
	"context"
	"fmt"
	"log/slog"

	"campus-events/internal/status"
	"campus-events/models"
)

// LoadSession resolves the signed-in identity once. A missing identity and
// a failed session request both mean the user has to log in.
func LoadSession(ctx context.Context, src SessionSource) (*models.SessionIdentity, error) {
	identity, err := src.Session(ctx)
	if err != nil {
		slog.Error("Failed to fetch session", "error", err)
		return nil, fmt.Errorf("%w: %w", status.ErrLoginRequired, err)
	}
	if identity == nil || identity.Email == "" {
		return nil, status.ErrLoginRequired
	}
	return identity, nil
}
