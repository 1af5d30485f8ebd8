package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/promptly-ai/chat-gateway/pkg/logger"
)

const (
	// StreamName is the name of the chat events stream.
	StreamName = "CHAT"

	// SubjectPrefix is the prefix for all chat event subjects.
	SubjectPrefix = "chat"
)

// NATSPublisher publishes chat events to a JetStream stream.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

// Config holds NATS connection configuration.
type Config struct {
	URL   string
	Token string
}

// Connect establishes the NATS connection and ensures the events
// stream exists.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &NATSPublisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *NATSPublisher) ensureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Chat exchange and quota events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// PublishExchangeCompleted publishes a completed-exchange event.
func (p *NATSPublisher) PublishExchangeCompleted(ctx context.Context, evt *ExchangeCompleted) {
	p.publish(ctx, fmt.Sprintf("%s.exchange.completed", SubjectPrefix), evt)
}

// PublishQuotaDenied publishes a quota-denial event.
func (p *NATSPublisher) PublishQuotaDenied(ctx context.Context, evt *QuotaDenied) {
	p.publish(ctx, fmt.Sprintf("%s.quota.denied", SubjectPrefix), evt)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, evt any) {
	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Warn("failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
