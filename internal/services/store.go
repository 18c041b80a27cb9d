package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/storage"
)

// DefaultStateKey is the slot holding the serialized document.
const DefaultStateKey = "invoiceData"

// Store holds the single document being edited.
//
// Startup has two phases. Init loads and reconciles the persisted slot without writing it
// back. Every later mutation merges the change, recomputes totals, publishes the new
// document to subscribers and persists it. Persistence errors are logged and ignored:
// the editor keeps working from memory.
type Store struct {
	kv               storage.KV
	key              string
	log              *logger.Logger
	now              func() time.Time
	persistOnHydrate bool

	// commitMu serializes commits so writes and notifications follow call order.
	commitMu sync.Mutex

	mu       sync.Mutex
	doc      models.Document
	hydrated bool
	nextSub  int
	subs     map[int]func(models.Document)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used for new documents.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithPersistOnHydrate makes Init write the reconciled document back to the slot
// when a saved document was found.
func WithPersistOnHydrate(enabled bool) StoreOption {
	return func(s *Store) { s.persistOnHydrate = enabled }
}

// NewStore returns a store persisting into kv under key.
func NewStore(kv storage.KV, key string, log *logger.Logger, opts ...StoreOption) *Store {
	if key == "" {
		key = DefaultStateKey
	}
	s := &Store{
		kv:   kv,
		key:  key,
		log:  log.Named("store"),
		now:  time.Now,
		subs: map[int]func(models.Document){},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = WithTotals(NewDefaultDocument(s.now()))
	return s
}

// Defaults returns a fresh default document for the store clock.
func (s *Store) Defaults() models.Document {
	return NewDefaultDocument(s.now())
}

// Init hydrates the store from the persisted slot, reconciled against defaults.
// It never writes the slot unless WithPersistOnHydrate is set.
func (s *Store) Init(ctx context.Context, defaults models.Document) models.Document {
	doc, found := s.load(ctx, defaults)
	return s.hydrate(ctx, doc, found && s.persistOnHydrate)
}

// Reload re-runs hydration against fresh defaults.
func (s *Store) Reload(ctx context.Context) models.Document {
	return s.Init(ctx, s.Defaults())
}

func (s *Store) load(ctx context.Context, defaults models.Document) (models.Document, bool) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Warnw("loading saved document failed, using defaults", "key", s.key, "error", err)
		return defaults, false
	}
	if !ok {
		return defaults, false
	}
	doc, err := Reconcile(defaults, []byte(raw))
	if err != nil {
		s.log.Warnw("saved document is unreadable, using defaults", "key", s.key, "error", err)
		return defaults, false
	}
	return doc, true
}

func (s *Store) hydrate(ctx context.Context, doc models.Document, persist bool) models.Document {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	doc = WithTotals(doc)
	s.mu.Lock()
	s.doc = doc
	s.hydrated = true
	subs := s.subscribers()
	s.mu.Unlock()

	if persist {
		s.persist(ctx, doc)
	}
	notify(subs, doc)
	return doc.Clone()
}

// Document returns a copy of the current document.
func (s *Store) Document() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Hydrated reports whether Init has completed.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Subscribe registers fn to receive every committed document and returns a function
// that removes the subscription. fn must not call mutating Store methods.
func (s *Store) Subscribe(fn func(models.Document)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Update merges p into the current document and commits it.
func (s *Store) Update(ctx context.Context, p Patch) models.Document {
	doc, _ := s.commit(ctx, func(d models.Document) (models.Document, error) {
		return p.Apply(d), nil
	})
	return doc
}

// AddLine appends a blank line and returns the document and the new line id.
func (s *Store) AddLine(ctx context.Context) (models.Document, string) {
	id := newID()
	doc, _ := s.commit(ctx, func(d models.Document) (models.Document, error) {
		d.Lines = models.AddLine(d.Lines, id)
		return d, nil
	})
	return doc, id
}

// UpdateLine edits the line identified by id.
func (s *Store) UpdateLine(ctx context.Context, id string, p models.LinePatch) (models.Document, error) {
	return s.commit(ctx, func(d models.Document) (models.Document, error) {
		lines, err := models.UpdateLine(d.Lines, id, p)
		if err != nil {
			return d, err
		}
		d.Lines = lines
		return d, nil
	})
}

// RemoveLine deletes the line identified by id; the last line cannot be removed.
func (s *Store) RemoveLine(ctx context.Context, id string) (models.Document, error) {
	return s.commit(ctx, func(d models.Document) (models.Document, error) {
		lines, err := models.RemoveLine(d.Lines, id)
		if err != nil {
			return d, err
		}
		d.Lines = lines
		return d, nil
	})
}

// ToggleType switches between quote and invoice. The document gets a new id and its
// conditional dates are recomputed 30 days after the document date; content is kept.
func (s *Store) ToggleType(ctx context.Context) models.Document {
	doc, _ := s.commit(ctx, func(d models.Document) (models.Document, error) {
		d.ID = newID()
		d.Type = d.Type.Toggle()
		return setConditionalDates(d, models.DefaultDays), nil
	})
	return doc
}

// Reset replaces the document with a blank one of the same type.
func (s *Store) Reset(ctx context.Context) models.Document {
	doc, _ := s.commit(ctx, func(d models.Document) (models.Document, error) {
		return NewBlankDocument(d.Type, s.now()), nil
	})
	return doc
}

// Import replaces the persisted slot with data, which must be a JSON object, and
// re-hydrates from it. Invalid input leaves both the slot and the document untouched.
func (s *Store) Import(ctx context.Context, data []byte) (models.Document, error) {
	doc, err := ImportJSON(s.Defaults(), data)
	if err != nil {
		return s.Document(), errors.Wrap(err, "import")
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return s.Document(), errors.Wrap(err, "import")
	}
	return s.hydrate(ctx, doc, false), nil
}

// commit applies mutate to a copy of the current document, recomputes totals,
// persists the result once hydrated and notifies subscribers.
func (s *Store) commit(ctx context.Context, mutate func(models.Document) (models.Document, error)) (models.Document, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	next, err := mutate(s.doc.Clone())
	if err != nil {
		current := s.doc.Clone()
		s.mu.Unlock()
		return current, err
	}
	next = WithTotals(next)
	s.doc = next
	hydrated := s.hydrated
	subs := s.subscribers()
	s.mu.Unlock()

	if hydrated {
		s.persist(ctx, next)
	}
	notify(subs, next)
	return next.Clone(), nil
}

func (s *Store) persist(ctx context.Context, doc models.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		s.log.Errorw("encoding document failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.log.Warnw("saving document failed, keeping in-memory state", "key", s.key, "error", err)
	}
}

// subscribers must be called with s.mu held.
func (s *Store) subscribers() []func(models.Document) {
	out := make([]func(models.Document), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(subs []func(models.Document), doc models.Document) {
	for _, fn := range subs {
		fn(doc.Clone())
	}
}
