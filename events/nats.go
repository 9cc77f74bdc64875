package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
)

// Connect открывает соединение с NATS.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("tournament-lifecycle"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// messagePublisher - то, что нужно от *nats.Conn.
type messagePublisher interface {
	Publish(subject string, data []byte) error
}

type NATSPublisher struct {
	conn   messagePublisher
	prefix string
	logger *slog.Logger
}

func NewNATSPublisher(conn messagePublisher, prefix string, logger *slog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = "tournaments"
	}
	return &NATSPublisher{conn: conn, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

// Subject строит тему вида <prefix>.<tournament_id>.<type>.
func (p *NATSPublisher) Subject(event Event) string {
	return p.prefix + "." + strconv.Itoa(event.TournamentID) + "." + strings.ToLower(string(event.Type))
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event for NATS", slog.String("type", string(event.Type)), slog.Any("error", err))
		return
	}
	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event to NATS", slog.String("subject", subject), slog.Any("error", err))
	}
}
