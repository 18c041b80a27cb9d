package preview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls []int
	err   error
	panic bool
}

func (r *fakeRenderer) Render(_ context.Context, doc models.Document) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, doc.Number)
	if r.panic {
		panic("font missing")
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-" + doc.ID), nil
}

// fakeSource publishes documents synchronously, like services.Store.
type fakeSource struct {
	subs []func(models.Document)
}

func (s *fakeSource) Subscribe(fn func(models.Document)) func() {
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() { s.subs[idx] = nil }
}

func (s *fakeSource) publish(doc models.Document) {
	for _, fn := range s.subs {
		if fn != nil {
			fn(doc)
		}
	}
}

func newTestPreviewer(r Renderer) (*Previewer, *fakeClock) {
	clock := &fakeClock{}
	return NewPreviewer(r, DefaultDelay, logger.NewNop(), WithAfterFunc(clock.AfterFunc)), clock
}

func TestPreviewer_DebouncesRenders(t *testing.T) {
	r := &fakeRenderer{}
	p, clock := newTestPreviewer(r)
	src := &fakeSource{}
	p.Attach(context.Background(), src)

	for n := 1; n <= 3; n++ {
		src.publish(models.Document{ID: "doc", Number: n})
		clock.Advance(200 * time.Millisecond)
	}
	assert.True(t, p.Status().Pending)
	_, err := p.Snapshot()
	assert.ErrorIs(t, err, ErrNoPreview)

	clock.Advance(time.Second)

	assert.Equal(t, []int{3}, r.calls)
	snap, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, 3, snap.Document.Number)
	assert.Equal(t, []byte("%PDF-doc"), snap.Data)
	assert.False(t, p.Status().Pending)
}

func TestPreviewer_ErrorBoundary(t *testing.T) {
	r := &fakeRenderer{}
	p, clock := newTestPreviewer(r)
	ctx := context.Background()

	p.Schedule(models.Document{ID: "a", Number: 1})
	clock.Advance(time.Second)
	require.NoError(t, p.LastError())

	r.err = errors.New("bad layout")
	p.Schedule(models.Document{ID: "b", Number: 2})
	clock.Advance(time.Second)

	assert.Error(t, p.LastError())
	st := p.Status()
	assert.Contains(t, st.Error, "bad layout")
	assert.Equal(t, 1, st.Version)
	snap, err := p.Snapshot()
	require.NoError(t, err, "previous preview stays available")
	assert.Equal(t, 1, snap.Document.Number)

	r.err = nil
	require.NoError(t, p.Retry(ctx))
	assert.NoError(t, p.LastError())
	snap, err = p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Version)
	assert.Equal(t, 2, snap.Document.Number)
}

func TestPreviewer_RecoversFromPanics(t *testing.T) {
	r := &fakeRenderer{panic: true}
	p, clock := newTestPreviewer(r)

	p.Schedule(models.Document{Number: 1})
	assert.NotPanics(t, func() { clock.Advance(time.Second) })

	err := p.LastError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "font missing")
	_, err = p.Snapshot()
	assert.Error(t, err)
}

func TestPreviewer_RetryWithoutDocument(t *testing.T) {
	p, _ := newTestPreviewer(&fakeRenderer{})
	assert.ErrorIs(t, p.Retry(context.Background()), ErrNoPreview)
}

func TestPreviewer_DetachAndClose(t *testing.T) {
	r := &fakeRenderer{}
	p, clock := newTestPreviewer(r)
	src := &fakeSource{}
	detach := p.Attach(context.Background(), src)

	src.publish(models.Document{Number: 1})
	detach()
	src.publish(models.Document{Number: 2})
	clock.Advance(time.Second)
	assert.Empty(t, r.calls)

	p.Schedule(models.Document{Number: 3})
	p.Close()
	clock.Advance(time.Second)
	assert.Empty(t, r.calls)
}

// gatedRenderer blocks the render of document number 1 until release is closed.
type gatedRenderer struct {
	started chan struct{}
	release chan struct{}
}

func (r *gatedRenderer) Render(_ context.Context, doc models.Document) ([]byte, error) {
	if doc.Number == 1 {
		close(r.started)
		<-r.release
	}
	return []byte("%PDF-" + doc.ID), nil
}

func TestPreviewer_SlowRenderDoesNotReplaceNewerPreview(t *testing.T) {
	r := &gatedRenderer{started: make(chan struct{}), release: make(chan struct{})}
	p, clock := newTestPreviewer(r)

	p.Schedule(models.Document{ID: "old", Number: 1})
	done := make(chan error, 1)
	go func() { done <- p.Retry(context.Background()) }()
	<-r.started

	p.Schedule(models.Document{ID: "new", Number: 2})
	clock.Advance(time.Second)

	snap, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Document.Number)
	assert.True(t, p.Status().Pending, "first render still in flight")

	close(r.release)
	require.NoError(t, <-done)

	snap, err = p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Document.Number)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, []byte("%PDF-new"), snap.Data)
	assert.False(t, p.Status().Pending)
}
