package poller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/segmentio/kafka-go"
)

// Reader is the subset of *kafka.Reader the poller uses.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Reloader re-fetches a user's cart.
type Reloader interface {
	Reload(ctx context.Context, userID string) error
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Poller reloads the cart of a shopper whose checkout the store announced as
// completed, so the emptied server cart is reflected locally.
type Poller struct {
	reloader Reloader
	reader   Reader
	log      *logger.Logger
}

type checkoutCompleted struct {
	UserID string `json:"user_id"`
}

func NewPoller(reloader Reloader, log *logger.Logger, cfg Config) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(reloader, reader, log)
}

func newPoller(reloader Reloader, reader Reader, log *logger.Logger) *Poller {
	return &Poller{reloader: reloader, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.handleNext(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error(context.Background(), "error closing reader", err)
	}
}

func (p *Poller) handleNext(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			p.log.Error(ctx, "error reading message", err)
		}
		return
	}

	var payload checkoutCompleted
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		p.log.Warn(ctx, "error parsing message", err)
		return
	}
	if payload.UserID == "" {
		p.log.Warn(ctx, "missing or invalid user_id", nil)
		return
	}

	ctx = p.log.WithUserID(ctx, payload.UserID)
	if err := p.reloader.Reload(ctx, payload.UserID); err != nil {
		p.log.Warn(ctx, "failed to reload cart after checkout", err)
	}
}
