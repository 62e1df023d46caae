package session

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const defaultPollInterval = 400 * time.Millisecond

// Watcher is the single registration point for session identifier change
// notifications. It merges file change events on the store with a coarse
// poll; the poll covers same-process writers and platforms where the file
// notifications never arrive, so subscribers only ever need OnChange.
type Watcher struct {
	store    *Store
	interval time.Duration

	mu   sync.Mutex
	last string
	subs []func(sessionID string)

	poke chan struct{}
}

// NewWatcher creates a Watcher over the given store. The interval bounds how
// late a change can be observed at worst; zero selects the 400ms default.
func NewWatcher(store *Store, interval time.Duration) (*Watcher, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	last, err := store.Get()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		store:    store,
		interval: interval,
		last:     last,
		poke:     make(chan struct{}, 1),
	}, nil
}

// OnChange registers fn to run whenever the stored identifier changes to a
// different value, including to empty on logout. Callbacks run on the watcher
// goroutine and must not block for long.
func (w *Watcher) OnChange(fn func(sessionID string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.subs = append(w.subs, fn)
}

// Poke requests an immediate re-read, used by writers in this process right
// after updating the store so subscribers do not wait for the next tick.
func (w *Watcher) Poke() {
	select {
	case w.poke <- struct{}{}:
	default: // a re-read is already pending
	}
}

// Run watches the store until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		events <-chan fsnotify.Event
		fails  <-chan error
	)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("file notifications unavailable, session sync falls back to polling")
	} else {
		defer func() { _ = fw.Close() }()

		// watch the directory, the store file itself is replaced on every write
		if err := fw.Add(filepath.Dir(w.store.Path())); err != nil {
			log.Warn().Err(err).Msg("can't watch profile dir, session sync falls back to polling")
		} else {
			events = fw.Events
			fails = fw.Errors
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	base := filepath.Base(w.store.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil

				continue
			}

			if filepath.Base(ev.Name) != base {
				continue
			}

			w.check()
		case err, ok := <-fails:
			if !ok {
				fails = nil

				continue
			}

			log.Warn().Err(err).Msg("session file watch error")
		case <-ticker.C:
			w.check()
		case <-w.poke:
			w.check()
		}
	}
}

// check re-reads the store and notifies subscribers when the value moved.
func (w *Watcher) check() {
	id, err := w.store.Get()
	if err != nil {
		log.Warn().Err(err).Msg("can't re-read session store")

		return
	}

	w.mu.Lock()

	if id == w.last {
		w.mu.Unlock()

		return
	}

	w.last = id
	subs := make([]func(string), len(w.subs))
	copy(subs, w.subs)

	w.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}
