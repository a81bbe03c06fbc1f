package events

import (
	"MultiAI_Assistant/backend/go/internal/models"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	ctxErr error
	err    error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.ctxErr = ctx.Err()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func TestPublish_KeysByIntent(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, logger.Discard())
	entry := models.AttemptLog{
		TraceID:    "t-1",
		Intent:     "upload-qa",
		Strategy:   "multipart",
		Attempt:    2,
		StatusCode: 503,
		Outcome:    "ServerError",
		StartedAt:  time.Unix(1_700_000_000, 0).UTC(),
	}

	require.NoError(t, p.Publish(context.Background(), entry))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "upload-qa", string(w.msgs[0].Key))

	var got models.AttemptLog
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, entry, got)
}

func TestObserveAttempt_IgnoresCancellationAndErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := NewKafkaPublisher(w, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		p.ObserveAttempt(ctx, models.AttemptLog{Intent: "ask-qa"})
	})
	assert.NoError(t, w.ctxErr)
	assert.Len(t, w.msgs, 1)
}
