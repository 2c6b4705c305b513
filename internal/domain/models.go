package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleFunction  Role = "function"
)

// Conversation groups the committed turns of one chat
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Title     string
	Turns     []Turn `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Turn is one entry of a conversation: a user message, an assistant reply,
// a system note or the result of a tool call.
type Turn struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	ConversationID uuid.UUID `gorm:"type:uuid;index"`
	Seq            int       `gorm:"index"`
	Role           Role      `gorm:"type:text"`
	Content        string
	Name           string // tool name for function turns
	IsError        bool
	CreatedAt      time.Time
}

func (t *Turn) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// HistoryRecord is the flat question/answer log written after each resolved step
type HistoryRecord struct {
	ID             uint      `gorm:"primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;index"`
	Question       string
	Answer         string
	Kind           string `gorm:"index"`
	CreatedAt      time.Time
}
