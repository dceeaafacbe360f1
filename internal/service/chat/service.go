package chat

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

const CodeChannelNotFound = "CHANNEL_NOT_FOUND"

const (
	channelActive = "active"
	messageText   = "text"
	previewLen    = 100
)

type ChannelFilter struct {
	Type   string
	Status string
}

type Service struct {
	store *repository.Store
	now   func() time.Time
}

func NewService(store *repository.Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) ListChannels(ctx context.Context, f ChannelFilter, page query.Pagination) (*repository.Page[model.ChatChannel], error) {
	filter, err := query.NewFilter().
		Eq("type", f.Type).
		Eq("status", f.Status).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.ChatChannels.FindPage(ctx, filter, page, query.Desc("lastActivity"))
}

func (s *Service) CreateChannel(ctx context.Context, ch *model.ChatChannel, actor string) error {
	if ch.Status == "" {
		ch.Status = channelActive
	}
	ch.CreatedBy = actor
	if ch.LastActivity.IsZero() {
		ch.LastActivity = s.now().UTC()
	}
	if err := s.store.ChatChannels.Create(ctx, ch); err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// ListMessages pages through a channel's history, newest first.
func (s *Service) ListMessages(ctx context.Context, channelID string, page query.Pagination) (*repository.Page[model.ChatMessage], error) {
	ch, err := service.Get(ctx, s.store.ChatChannels, channelID, CodeChannelNotFound, "channel")
	if err != nil {
		return nil, err
	}
	return s.store.ChatMessages.FindPage(ctx, bson.M{"channelId": ch.ID}, page, query.Desc("timestamp"))
}

// PostMessage appends a message from sender and bumps the channel's last
// activity.
func (s *Service) PostMessage(ctx context.Context, channelID string, msg *model.ChatMessage, sender string) error {
	ch, err := service.Get(ctx, s.store.ChatChannels, channelID, CodeChannelNotFound, "channel")
	if err != nil {
		return err
	}

	msg.ChannelID = ch.ID
	msg.SenderID = sender
	msg.Timestamp = s.now().UTC()
	if msg.Type == "" {
		msg.Type = messageText
	}
	if err := s.store.ChatMessages.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	if _, err := s.store.ChatChannels.UpdateByID(ctx, ch.ID, bson.M{
		"lastMessage":  preview(msg.Content),
		"lastActivity": msg.Timestamp,
	}); err != nil {
		return fmt.Errorf("failed to update channel activity: %w", err)
	}
	return nil
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLen {
		return content
	}
	return string(r[:previewLen])
}
