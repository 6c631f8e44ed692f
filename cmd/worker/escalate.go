package main

import (
	"context"
	"time"

	"github.com/suPer8Hu/calmchat/internal/chat"
	"github.com/suPer8Hu/calmchat/internal/store/rabbitmq"
	"go.uber.org/zap"
)

// escalator hands a crisis alert to whoever is on call.
type escalator interface {
	Escalate(ctx context.Context, alert chat.CrisisAlert) error
}

// logEscalator writes a structured escalation record.
type logEscalator struct {
	log *zap.Logger
}

func (e logEscalator) Escalate(ctx context.Context, alert chat.CrisisAlert) error {
	e.log.Warn("crisis escalation",
		zap.String("session", alert.SessionTag),
		zap.String("phrase", alert.Phrase),
		zap.Time("at", alert.At),
		zap.Duration("age", time.Since(alert.At)),
	)
	return nil
}

type action int

const (
	actionAck action = iota
	actionRetry
	actionDeadLetter
)

const maxAttempts = 3

// decide escalates one delivery body and says what to do with it.
func decide(ctx context.Context, esc escalator, body []byte, attempt int) (action, error) {
	alert, err := rabbitmq.DecodeAlert(body)
	if err != nil {
		return actionDeadLetter, err
	}
	if err := esc.Escalate(ctx, alert); err != nil {
		if attempt+1 >= maxAttempts {
			return actionDeadLetter, err
		}
		return actionRetry, err
	}
	return actionAck, nil
}

// retryDelay backs off 5s, 10s, 20s... capped at one minute.
func retryDelay(attempt int) time.Duration {
	d := 5 * time.Second << attempt
	if attempt > 4 || d > time.Minute {
		return time.Minute
	}
	return d
}
