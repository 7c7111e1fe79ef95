package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sefavnl/giris-ve-kayit/pkg/kafka"
	"github.com/sefavnl/giris-ve-kayit/pkg/logger"
)

// Kafka topics this service publishes to.
const (
	TopicUserRegistered         = "user.registered"
	TopicPasswordResetRequested = "user.password_reset_requested"
	TopicPasswordChanged        = "user.password_changed"
)

const (
	aggregateTypeUser = "user"
	source            = "giris-ve-kayit"
)

// UserRegistered is the payload published when a new account is created.
type UserRegistered struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetRequested is published when a reset token is issued. The token
// itself is never included in the payload.
type PasswordResetRequested struct {
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	RequestedAt time.Time `json:"requested_at"`
}

// PasswordChanged is published after a password is replaced via a reset token.
type PasswordChanged struct {
	Email     string    `json:"email"`
	ChangedAt time.Time `json:"changed_at"`
}

// Producer publishes user lifecycle events. Publishing is best-effort: the
// caller decides whether a publish failure should fail the operation.
type Producer struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewProducer creates an event producer on top of the Kafka producer.
func NewProducer(producer *kafka.Producer, log *slog.Logger) *Producer {
	return &Producer{producer: producer, logger: log}
}

// PublishUserRegistered emits a user.registered event keyed by user ID.
func (p *Producer) PublishUserRegistered(ctx context.Context, payload UserRegistered) error {
	return p.publish(ctx, TopicUserRegistered, payload.UserID, payload)
}

// PublishPasswordResetRequested emits a user.password_reset_requested event
// keyed by email.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, payload PasswordResetRequested) error {
	return p.publish(ctx, TopicPasswordResetRequested, payload.Email, payload)
}

// PublishPasswordChanged emits a user.password_changed event keyed by email.
func (p *Producer) PublishPasswordChanged(ctx context.Context, payload PasswordChanged) error {
	return p.publish(ctx, TopicPasswordChanged, payload.Email, payload)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, payload any) error {
	evt, err := kafka.NewEvent(topic, aggregateID, aggregateTypeUser, source, payload)
	if err != nil {
		return fmt.Errorf("build %s event: %w", topic, err)
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	return p.producer.Publish(ctx, topic, evt)
}
