package preview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/models"
)

// DefaultDelay is the quiet period before a preview is rendered.
const DefaultDelay = time.Second

// ErrNoPreview is returned by Snapshot before the first successful render.
var ErrNoPreview = errors.New("no preview rendered yet")

// Renderer turns a document into its printable form.
type Renderer interface {
	Render(ctx context.Context, doc models.Document) ([]byte, error)
}

// Source publishes committed documents; services.Store implements it.
type Source interface {
	Subscribe(fn func(models.Document)) (unsubscribe func())
}

// Status describes the preview for polling clients.
type Status struct {
	Pending    bool      `json:"pending"`
	Version    int       `json:"version"`
	Error      string    `json:"error,omitempty"`
	RenderedAt time.Time `json:"renderedAt"`
}

// Snapshot is the latest successfully rendered preview.
type Snapshot struct {
	Data       []byte
	Version    int
	Document   models.Document
	RenderedAt time.Time
}

// Previewer keeps a rendered preview of the latest document, re-rendered at most once
// per quiet period. It is the error boundary of rendering: failures and panics are
// logged and kept as LastError while the previous preview stays available.
type Previewer struct {
	renderer Renderer
	log      *logger.Logger
	sched    *Scheduler[models.Document]
	now      func() time.Time

	mu         sync.Mutex
	ctx        context.Context
	current    models.Document
	hasCurrent bool
	// seq numbers renders in start order; applied is the seq of the last result kept.
	seq      int
	applied  int
	inflight int
	snapshot Snapshot
	lastErr  error
}

// NewPreviewer returns a previewer rendering through r after delay of inactivity.
func NewPreviewer(r Renderer, delay time.Duration, log *logger.Logger, opts ...Option) *Previewer {
	p := &Previewer{
		renderer: r,
		log:      log.Named("preview"),
		now:      time.Now,
		ctx:      context.Background(),
	}
	p.sched = NewScheduler(delay, p.emit, opts...)
	return p
}

// Attach subscribes to src; rendering triggered by src uses ctx.
// The returned function detaches the previewer and drops any pending render.
func (p *Previewer) Attach(ctx context.Context, src Source) (detach func()) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	unsubscribe := src.Subscribe(p.Schedule)
	return func() {
		unsubscribe()
		p.sched.Cancel()
	}
}

// Schedule records doc as the current document and debounces its rendering.
func (p *Previewer) Schedule(doc models.Document) {
	p.mu.Lock()
	p.current = doc.Clone()
	p.hasCurrent = true
	p.mu.Unlock()

	p.sched.Schedule(doc)
}

func (p *Previewer) emit(doc models.Document) {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	_ = p.render(ctx, doc)
}

// Retry clears the error state and renders the current document immediately.
func (p *Previewer) Retry(ctx context.Context) error {
	p.mu.Lock()
	doc, ok := p.current, p.hasCurrent
	p.lastErr = nil
	p.mu.Unlock()

	if !ok {
		return ErrNoPreview
	}
	p.sched.Cancel()
	return p.render(ctx, doc)
}

// Flush renders the current document now, skipping the quiet period.
func (p *Previewer) Flush(ctx context.Context) error {
	return p.Retry(ctx)
}

// render draws doc and stores the outcome unless a render started later has already
// finished, so a slow render never replaces a newer preview.
func (p *Previewer) render(ctx context.Context, doc models.Document) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.inflight++
	p.mu.Unlock()

	data, err := p.safeRender(ctx, doc)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--
	if seq < p.applied {
		p.log.Debugw("dropping stale preview", "document", doc.ID, "seq", seq, "applied", p.applied)
		return nil
	}
	p.applied = seq
	if err != nil {
		p.lastErr = err
		p.log.Errorw("rendering preview failed", "document", doc.ID, "error", err)
		return err
	}
	p.lastErr = nil
	p.snapshot = Snapshot{
		Data:       data,
		Version:    p.snapshot.Version + 1,
		Document:   doc.Clone(),
		RenderedAt: p.now(),
	}
	p.log.Debugw("preview rendered", "document", doc.ID, "version", p.snapshot.Version, "bytes", len(data))
	return nil
}

func (p *Previewer) safeRender(ctx context.Context, doc models.Document) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("renderer panicked: %v", r)
		}
	}()
	data, err = p.renderer.Render(ctx, doc)
	if err != nil {
		return nil, errors.Wrap(err, "render preview")
	}
	return data, nil
}

// Snapshot returns the latest successful render.
func (p *Previewer) Snapshot() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot.Version == 0 {
		if p.lastErr != nil {
			return Snapshot{}, p.lastErr
		}
		return Snapshot{}, ErrNoPreview
	}
	return p.snapshot, nil
}

// LastError returns the error of the last render, nil after a success.
func (p *Previewer) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Status reports whether a render is pending and the outcome of the last one.
func (p *Previewer) Status() Status {
	pending := p.sched.Pending()

	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{
		Pending:    pending || p.inflight > 0,
		Version:    p.snapshot.Version,
		RenderedAt: p.snapshot.RenderedAt,
	}
	if p.lastErr != nil {
		st.Error = p.lastErr.Error()
	}
	return st
}

// Close stops the scheduler; later documents are ignored.
func (p *Previewer) Close() {
	p.sched.Stop()
}

// String implements fmt.Stringer for log lines.
func (s Status) String() string {
	if s.Error != "" {
		return fmt.Sprintf("error (v%d): %s", s.Version, s.Error)
	}
	if s.Pending {
		return fmt.Sprintf("Mise à jour en cours... (v%d)", s.Version)
	}
	return fmt.Sprintf("v%d", s.Version)
}
