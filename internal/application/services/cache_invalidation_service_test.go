package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
)

type recordingCache struct {
	mu       sync.Mutex
	patterns []string
	deleted  []string
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (c *recordingCache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	return map[string][]byte{}, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return nil
}

func (c *recordingCache) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *recordingCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	return nil
}

func (c *recordingCache) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (c *recordingCache) seenPatterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.patterns...)
}

func TestCacheInvalidationService_HandleEvent_DropsPatientKeys(t *testing.T) {
	cache := &recordingCache{}
	svc := NewCacheInvalidationService(cache, &stubEventBus{})

	svc.handleEvent(&entities.PatientEvent{
		ID:        "e1",
		Type:      entities.PatientEventUpdated,
		PatientID: "p1",
		Timestamp: time.Now(),
	})

	assert.Equal(t, []string{
		"patient:p1",
		"http:cache:*patients/p1*",
	}, cache.seenPatterns())
}

func TestCacheInvalidationService_ProcessEvents_ReturnsOnClosedChannel(t *testing.T) {
	svc := NewCacheInvalidationService(&recordingCache{}, &stubEventBus{})
	defer svc.Stop()

	eventChan := make(chan *entities.PatientEvent)
	done := make(chan struct{})
	go func() {
		svc.processEvents(eventChan)
		close(done)
	}()

	// Bus shutdown closes the subscriber channel while the service context
	// is still live; the loop must exit instead of spinning on nil reads.
	close(eventChan)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processEvents kept running after the event channel closed")
	}
}

func TestCacheInvalidationService_ProcessEvents_SkipsNilEvents(t *testing.T) {
	cache := &recordingCache{}
	svc := NewCacheInvalidationService(cache, &stubEventBus{})

	eventChan := make(chan *entities.PatientEvent, 2)
	eventChan <- nil
	eventChan <- &entities.PatientEvent{ID: "e1", Type: entities.PatientEventDeleted, PatientID: "p9"}

	done := make(chan struct{})
	go func() {
		svc.processEvents(eventChan)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(cache.seenPatterns()) == 2
	}, time.Second, 10*time.Millisecond)

	svc.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processEvents did not honor Stop")
	}
}
