package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/aqdev/uauth/pkg/kafka"

	"github.com/aqdev/uauth/internal/domain"
)

// Kafka topics for auth domain events.
var (
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicSessionCreated = pkgkafka.Topic("session", "created")
	TopicSessionRevoked = pkgkafka.Topic("session", "revoked")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeSession = "session"
)

// Source identifier for events originating from this service.
const SourceAuthService = "uauth"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// SessionCreatedData is the payload for a session.created event. It carries
// only identifiers, never token material.
type SessionCreatedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

// SessionRevokedData is the payload for a session.revoked event.
type SessionRevokedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// Producer publishes auth domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role.String(),
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishSessionCreated publishes a session.created event.
func (p *Producer) PublishSessionCreated(ctx context.Context, rec *domain.TokenRecord, email string) error {
	data := SessionCreatedData{
		SessionID: rec.ID,
		UserID:    rec.UserID,
		Email:     email,
	}

	event, err := pkgkafka.NewEvent(TopicSessionCreated, rec.ID, AggregateTypeSession, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create session.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionCreated, event); err != nil {
		return fmt.Errorf("publish session.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.created event",
		slog.String("session_id", rec.ID),
		slog.String("user_id", rec.UserID),
	)

	return nil
}

// PublishSessionRevoked publishes a session.revoked event.
func (p *Producer) PublishSessionRevoked(ctx context.Context, rec *domain.TokenRecord) error {
	data := SessionRevokedData{
		SessionID: rec.ID,
		UserID:    rec.UserID,
	}

	event, err := pkgkafka.NewEvent(TopicSessionRevoked, rec.ID, AggregateTypeSession, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create session.revoked event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionRevoked, event); err != nil {
		return fmt.Errorf("publish session.revoked event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.revoked event",
		slog.String("session_id", rec.ID),
		slog.String("user_id", rec.UserID),
	)

	return nil
}
