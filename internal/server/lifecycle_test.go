package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type blockingService struct {
	started atomic.Bool
	stop    chan struct{}
	once    sync.Once
	order   *[]string
	mu      *sync.Mutex
	name    string
}

func newBlocking(name string, order *[]string, mu *sync.Mutex) *blockingService {
	return &blockingService{stop: make(chan struct{}), order: order, mu: mu, name: name}
}

func (b *blockingService) Start() error {
	b.started.Store(true)
	<-b.stop
	return nil
}

func (b *blockingService) Stop(context.Context) error {
	b.once.Do(func() {
		b.mu.Lock()
		*b.order = append(*b.order, b.name)
		b.mu.Unlock()
		close(b.stop)
	})
	return nil
}

func TestLifecycle_StopsInReverseOrder(t *testing.T) {
	var order []string
	var mu sync.Mutex
	lc := NewLifecycle(zaptest.NewLogger(t), time.Second)
	first := newBlocking("first", &order, &mu)
	second := newBlocking("second", &order, &mu)
	lc.Add("first", first)
	lc.Add("second", second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return first.started.Load() && second.started.Load()
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestLifecycle_ServiceFailureStopsOthers(t *testing.T) {
	var order []string
	var mu sync.Mutex
	lc := NewLifecycle(zaptest.NewLogger(t), time.Second)
	healthy := newBlocking("healthy", &order, &mu)
	lc.Add("healthy", healthy)
	lc.Add("broken", &FuncService{StartFn: func() error { return errors.New("port in use") }})

	err := lc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service broken")
	assert.Equal(t, []string{"healthy"}, order)
}

func TestHTTPService_ServesAndStops(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	svc := HTTPService("127.0.0.1:0", h, time.Second, time.Second, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, svc.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("http service did not stop")
	}
}
