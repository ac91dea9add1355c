package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i2y/mcpboot/internal/usecase"
)

// Scanner visits every catalog type once per listener, then finalizes the listeners.
type Scanner struct {
	catalog   *Catalog
	listeners []usecase.ClassListener
	logger    *slog.Logger
}

// NewScanner creates a scanner over c.
func NewScanner(c *Catalog, logger *slog.Logger) *Scanner {
	return &Scanner{
		catalog: c,
		logger:  logger.With("component", "scanner"),
	}
}

// AddListener registers a listener for the next scan passes.
func (s *Scanner) AddListener(l usecase.ClassListener) {
	s.listeners = append(s.listeners, l)
}

// Scan runs one discovery pass. The first listener error stops the pass.
func (s *Scanner) Scan(ctx context.Context) error {
	classes := s.catalog.Classes()
	s.logger.Info("Scanning catalog.", slog.Int("class_count", len(classes)), slog.Int("listener_count", len(s.listeners)))

	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, l := range s.listeners {
			if err := l.Listen(class); err != nil {
				return fmt.Errorf("scan of %s failed: %w", class, err)
			}
		}
	}
	for _, l := range s.listeners {
		l.Finalize()
	}
	return nil
}
