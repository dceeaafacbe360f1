package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatChannel struct {
	Base         `bson:",inline"`
	Name         string    `json:"name" bson:"name"`
	Type         string    `json:"type" bson:"type"`
	Status       string    `json:"status" bson:"status"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Members      []string  `json:"members,omitempty" bson:"members,omitempty"`
	LastMessage  string    `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`
	LastActivity time.Time `json:"lastActivity" bson:"lastActivity"`
	CreatedBy    string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
}

type ChatMessage struct {
	Base      `bson:",inline"`
	ChannelID primitive.ObjectID `json:"channelId" bson:"channelId"`
	SenderID  string             `json:"senderId" bson:"senderId"`
	Content   string             `json:"content" bson:"content"`
	Type      string             `json:"type" bson:"type"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}
