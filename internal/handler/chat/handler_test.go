package chat_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	chatHandler "github.com/jwalitptl/backoffice-api/internal/handler/chat"
	"github.com/jwalitptl/backoffice-api/internal/handler/handlertest"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service/chat"
)

func setup(t *testing.T) *handlertest.Env {
	env := handlertest.New(t)
	chatHandler.NewHandler(chat.NewService(env.Store), env.Responder).RegisterRoutes(env.API)
	return env
}

func TestChannelsByLastActivity(t *testing.T) {
	env := setup(t)
	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	handlertest.Seed(t, env.Store.ChatChannels,
		model.ChatChannel{Name: "billing", Type: "support", Status: "active", LastActivity: base},
		model.ChatChannel{Name: "ops", Type: "internal", Status: "active", LastActivity: base.Add(2 * time.Hour)},
		model.ChatChannel{Name: "vip", Type: "support", Status: "active", LastActivity: base.Add(time.Hour)},
		model.ChatChannel{Name: "old", Type: "support", Status: "archived", LastActivity: base.Add(3 * time.Hour)},
	)

	var channels []model.ChatChannel
	res := env.Do(t, http.MethodGet, "/api/v1/chat/channels?type=support&status=active", nil).StatusOK()
	res.Decode(&channels)
	require.Len(t, channels, 2)
	assert.Equal(t, "vip", channels[0].Name)
	assert.Equal(t, "billing", channels[1].Name)
	assert.Equal(t, 20, res.Envelope.Pagination.Limit)
}

func TestPostMessage(t *testing.T) {
	env := setup(t)

	res := env.Do(t, http.MethodPost, "/api/v1/chat/channels", map[string]string{"name": "billing", "type": "chatroom"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	var ch model.ChatChannel
	res = env.Do(t, http.MethodPost, "/api/v1/chat/channels", map[string]string{"name": "billing", "type": "support"})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&ch)
	created := ch.LastActivity
	path := "/api/v1/chat/channels/" + ch.ID.Hex() + "/messages"

	var msg model.ChatMessage
	res = env.Do(t, http.MethodPost, path, map[string]string{"content": "first"})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&msg)
	assert.Equal(t, handlertest.DefaultUser.ID, msg.SenderID)
	assert.Equal(t, ch.ID, msg.ChannelID)
	assert.Equal(t, "text", msg.Type)

	long := strings.Repeat("x", 150)
	env.Do(t, http.MethodPost, path, map[string]string{"content": long}).StatusOK()
	assert.Equal(t, 2, env.DB.Len(repository.CollChatMessages))

	stored, err := env.Store.ChatChannels.FindByID(context.Background(), ch.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, strings.Repeat("x", 100), stored.LastMessage)
	assert.False(t, stored.LastActivity.Before(created.Truncate(time.Millisecond)))
}

func TestMessagesNewestFirst(t *testing.T) {
	env := setup(t)
	channels := handlertest.Seed(t, env.Store.ChatChannels, model.ChatChannel{Name: "ops", Type: "internal", Status: "active"})
	other := primitive.NewObjectID()
	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	handlertest.Seed(t, env.Store.ChatMessages,
		model.ChatMessage{ChannelID: channels[0].ID, Content: "one", Timestamp: base},
		model.ChatMessage{ChannelID: channels[0].ID, Content: "three", Timestamp: base.Add(2 * time.Minute)},
		model.ChatMessage{ChannelID: channels[0].ID, Content: "two", Timestamp: base.Add(time.Minute)},
		model.ChatMessage{ChannelID: other, Content: "elsewhere", Timestamp: base},
	)

	var messages []model.ChatMessage
	res := env.Do(t, http.MethodGet, "/api/v1/chat/channels/"+channels[0].ID.Hex()+"/messages?limit=2", nil).StatusOK()
	res.Decode(&messages)
	require.Len(t, messages, 2)
	assert.Equal(t, "three", messages[0].Content)
	assert.Equal(t, "two", messages[1].Content)
	assert.Equal(t, int64(3), res.Envelope.Pagination.Total)
	assert.Equal(t, 2, res.Envelope.Pagination.Pages)
}

func TestMissingChannel(t *testing.T) {
	env := setup(t)
	path := "/api/v1/chat/channels/" + primitive.NewObjectID().Hex() + "/messages"

	res := env.Do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, chat.CodeChannelNotFound, res.Envelope.Error)

	res = env.Do(t, http.MethodPost, path, map[string]string{"content": "hello"})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, 0, env.DB.Len(repository.CollChatMessages))
}
