package rabbitmq

import (
	"context"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/calmchat/internal/chat"
)

func TestEncodeDecodeAlert(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := EncodeAlert(chat.CrisisAlert{SessionTag: "abcdef012345", Phrase: "end my life", At: at})
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "crisis_alert", msg.Type)
	assert.JSONEq(t, `{"session_tag":"abcdef012345","phrase":"end my life","at":"2025-03-01T12:00:00Z"}`, string(msg.Body))

	alert, err := DecodeAlert(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "end my life", alert.Phrase)
	assert.True(t, at.Equal(alert.At))
}

func TestEncodeAlert_RequiresFields(t *testing.T) {
	_, err := EncodeAlert(chat.CrisisAlert{Phrase: "x"})
	assert.Error(t, err)
	_, err = DecodeAlert([]byte(`{"session_tag":"abc"}`))
	assert.Error(t, err)
	_, err = DecodeAlert([]byte(`not json`))
	assert.Error(t, err)
}

func TestAttemptOf(t *testing.T) {
	assert.Equal(t, 0, AttemptOf(amqp.Delivery{}))
	assert.Equal(t, 2, AttemptOf(amqp.Delivery{Headers: amqp.Table{HeaderAttempt: int32(2)}}))
	assert.Equal(t, 3, AttemptOf(amqp.Delivery{Headers: amqp.Table{HeaderAttempt: int64(3)}}))
}

func TestPublisher_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_RABBIT_URL")
	if url == "" {
		t.Skip("TEST_RABBIT_URL not set")
	}
	queue := "calmchat_test_" + time.Now().Format("150405.000000")
	p, err := NewPublisher(url, queue)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, q := range []string{queue, RetryQueue(queue), DeadLetterQueue(queue)} {
			_, _ = p.ch.QueueDelete(q, false, false, false)
		}
		_ = p.Close()
	})

	require.NoError(t, p.PublishCrisis(context.Background(), chat.CrisisAlert{SessionTag: "abcdef012345", Phrase: "overdose"}))

	var d amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		d, ok, err = p.ch.Get(queue, true)
		return err == nil && ok
	}, 5*time.Second, 50*time.Millisecond)

	alert, err := DecodeAlert(d.Body)
	require.NoError(t, err)
	assert.Equal(t, "overdose", alert.Phrase)
}
