package display

import (
	"bytes"
	"context"
	"log/slog"
	"ticker-board/config"
	"ticker-board/data"
	"time"
)

// Loop periodically renders the store onto a surface
type Loop struct {
	store   data.PriceStore
	surface Surface
	palette *Palette
	config  config.DisplayConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewLoop(store data.PriceStore, surface Surface, palette *Palette, config config.DisplayConfig, logger *slog.Logger) *Loop {
	return &Loop{
		store:   store,
		surface: surface,
		palette: palette,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Run draws immediately and then once per refresh interval. When ctx is
// done it draws a final frame, releases the surface and returns.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.config.RefreshInterval
	if interval <= 0 {
		interval = time.Second
	}

	l.draw(interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.draw(interval)
			l.logger.Debug("Display loop stopped")
			return l.surface.Release()
		case <-ticker.C:
			l.draw(interval)
		}
	}
}

func (l *Loop) draw(interval time.Duration) {
	rows := BuildRows(l.store.Snapshot(), l.store.Symbols(), l.config.Sort, l.config.Names)
	frame := Frame{
		Title:      l.config.Title,
		RenderedAt: l.now(),
		Interval:   interval,
		Sort:       l.config.Sort,
		Updates:    l.store.UpdatedCount(),
	}

	var buf bytes.Buffer
	if err := RenderTable(&buf, rows, frame, l.palette); err != nil {
		l.logger.Warn("Failed to render frame", "error", err)
		return
	}
	if err := l.surface.Draw(buf.Bytes()); err != nil {
		l.logger.Warn("Failed to draw frame", "error", err)
	}
}
