package service

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp_scraper/internal/domain"
)

// captureSink records every published event for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *captureSink) Publish(event domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureSink) all() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

func (c *captureSink) byType(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range c.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestEmitter_FansOut(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	emitter := NewEmitter(first, second)

	emitter.Progress("batch_1", 2, 5)

	for _, sink := range []*captureSink{first, second} {
		events := sink.all()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventProgress, events[0].Type)
		assert.Equal(t, "batch_1", events[0].BatchID)
		assert.Equal(t, 2, events[0].CompletedAccounts)
		assert.Equal(t, 5, events[0].TotalAccounts)
	}
}

func TestEmitter_SkipsNilSinks(t *testing.T) {
	sink := &captureSink{}
	emitter := NewEmitter(nil, sink, nil)

	emitter.BatchCompleted("batch_1", 7)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventBatchCompleted, events[0].Type)
	assert.Equal(t, 7, events[0].TotalArticles)
}

func TestEmitter_NilReceiverIsSafe(t *testing.T) {
	var emitter *Emitter

	assert.NotPanics(t, func() {
		emitter.Progress("batch_1", 1, 1)
		emitter.AccountStatus("batch_1", domain.AccountOutcome{})
		emitter.BatchCompleted("batch_1", 0)
		emitter.Error("batch_1", "acc", "boom")
	})
}

func TestEmitter_AccountStatusCarriesError(t *testing.T) {
	sink := &captureSink{}
	emitter := NewEmitter(sink)

	emitter.AccountStatus("batch_1", domain.AccountOutcome{
		AccountName:   "Tech Daily",
		Status:        domain.AccountError,
		ArticlesFound: 3,
		CurrentPage:   2,
		Err:           errors.New("resolve blew up"),
	})

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventAccountStatus, events[0].Type)
	assert.Equal(t, "Tech Daily", events[0].AccountName)
	assert.Equal(t, domain.AccountError, events[0].Status)
	assert.Equal(t, 3, events[0].ArticlesFound)
	assert.Equal(t, 2, events[0].CurrentPage)
	assert.Equal(t, "resolve blew up", events[0].Message)
}

func TestLogSink_HandlesEveryType(t *testing.T) {
	sink := NewLogSink(slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NotPanics(t, func() {
		sink.Publish(domain.Event{Type: domain.EventProgress})
		sink.Publish(domain.Event{Type: domain.EventAccountStatus})
		sink.Publish(domain.Event{Type: domain.EventBatchCompleted})
		sink.Publish(domain.Event{Type: domain.EventError})
	})
}
