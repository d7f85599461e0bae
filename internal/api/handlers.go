package api

import (
	"errors"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/parser"
	"github.com/seat-planner/backend/internal/session"
	"go.uber.org/zap"
)

// LoadDefaultRules applies the venue rules file at path to every session.
// A missing file is not an error.
func LoadDefaultRules(sessions SessionManager, path string, logger *zap.Logger) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	rules, err := parser.ParseVenueRules(path)
	if err != nil {
		return fmt.Errorf("failed to parse default rules: %w", err)
	}
	sessions.SetRules(rules)

	if logger != nil {
		logger.Info("venue rules loaded",
			zap.String("path", path),
			zap.Float64("default_price", rules.DefaultPrice),
			zap.Int("max_selectable_seats", rules.MaxSelectableSeats),
			zap.Int("categories", len(rules.Categories)))
	}
	return nil
}

// lookupSession resolves the :id path parameter and locks the session's
// editor. The caller must Unlock it. Looking a session up keeps it alive.
func lookupSession(sessions SessionManager, c echo.Context) (*session.Session, error) {
	s, err := findSession(sessions, c)
	if err != nil {
		return nil, err
	}
	s.Lock()
	return s, nil
}

// findSession resolves the :id path parameter without locking the session.
func findSession(sessions SessionManager, c echo.Context) (*session.Session, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	s, err := sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, NewNotFoundError("session", id)
		}
		return nil, NewInternalError("failed to load session", err)
	}
	return s, nil
}

// elementID resolves the :elementId path parameter.
func elementID(c echo.Context) (string, error) {
	id := c.Param("elementId")
	if id == "" {
		return "", NewValidationError("elementId")
	}
	return id, nil
}

// recordOf returns the wire form of el, or nil.
func recordOf(el *models.Element) *models.ElementRecord {
	if el == nil {
		return nil
	}
	r := el.Record()
	return &r
}
