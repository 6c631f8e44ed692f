package chat

import (
	"time"

	"github.com/suPer8Hu/calmchat/internal/ai"
)

const (
	RoleSystem    = ai.RoleSystem
	RoleUser      = ai.RoleUser
	RoleAssistant = ai.RoleAssistant
)

// Turn is one message of a conversation. Turns are values and never change
// after they are appended.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Stage string

const (
	StageProvider Stage = "provider"
	StagePipeline Stage = "pipeline"
)

// Pipeline outcomes. Provider attempts record "ok" or the ai.ErrorKind.
const (
	OutcomeOK            = "ok"
	OutcomeEmpty         = "empty"
	OutcomeCrisis        = "crisis"
	OutcomeNotConfigured = "not_configured"
	OutcomeProvider      = "provider"
	OutcomeCanned        = "canned"
)

// Attempt is one audit row. It never carries message text; sessions are
// identified by their logging tag only.
type Attempt struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionTag string    `gorm:"type:varchar(16);index;not null" json:"session_tag"`
	Stage      Stage     `gorm:"type:varchar(16);index:idx_chat_attempt_stage_provider,priority:1;not null" json:"stage"`
	Provider   string    `gorm:"type:varchar(32);index:idx_chat_attempt_stage_provider,priority:2" json:"provider"`
	Outcome    string    `gorm:"type:varchar(32);not null" json:"outcome"`
	LatencyMS  int64     `gorm:"not null" json:"latency_ms"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Attempt) TableName() string { return "chat_attempts" }

// CrisisAlert is published when a message trips the crisis filter. It holds
// the matched phrase, never the message itself.
type CrisisAlert struct {
	SessionTag string    `json:"session_tag"`
	Phrase     string    `json:"phrase"`
	At         time.Time `json:"at"`
}
