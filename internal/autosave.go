package internal

import (
	"sync"
	"time"
)

// DefaultAutosaveDelay is the debounce window of an edit session
const DefaultAutosaveDelay = 500 * time.Millisecond

// Debouncer runs the most recently scheduled function once no new one has
// been scheduled for delay. At most one call is pending at a time.
type Debouncer struct {
	mu      sync.Mutex
	idle    *sync.Cond
	delay   time.Duration
	timer   *time.Timer
	pending func()
	running int
	seq     uint64
}

// NewDebouncer creates a debouncer
func NewDebouncer(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Schedule replaces any pending call with fn and restarts the timer
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Flush runs the pending call now, on the caller's goroutine, and waits for
// a call the timer already started. It reports whether either happened.
func (d *Debouncer) Flush() bool {
	fn := d.take()
	if fn != nil {
		fn()
	}
	waited := d.Wait()
	return fn != nil || waited
}

// Wait blocks until no timer-started call is running and reports whether
// one was
func (d *Debouncer) Wait() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	waited := false
	for d.running > 0 {
		waited = true
		d.idle.Wait()
	}
	return waited
}

// Cancel drops the pending call and reports whether there was one
func (d *Debouncer) Cancel() bool {
	return d.take() != nil
}

// Pending reports whether a call is waiting or running
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil || d.running > 0
}

func (d *Debouncer) take() func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	fn := d.pending
	d.pending = nil
	return fn
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.running++
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running--
		d.idle.Broadcast()
		d.mu.Unlock()
	}()
	fn()
}

// EditSession collects field edits of one prompt and saves them through
// UpdatePrompt after a quiet period. The library must not be written from
// elsewhere while a save can fire.
type EditSession struct {
	lib      *Library
	id       string
	debounce *Debouncer

	mu      sync.Mutex
	update  PromptUpdate
	changed bool
	lastErr error
	onSave  func(id string, err error)
}

// Edit starts an edit session for id
func (l *Library) Edit(id string, delay time.Duration) *EditSession {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &EditSession{lib: l, id: id, debounce: NewDebouncer(delay)}
}

// OnSave registers a callback run after every save attempt
func (s *EditSession) OnSave(fn func(id string, err error)) {
	s.mu.Lock()
	s.onSave = fn
	s.mu.Unlock()
}

// SelectVersion switches the edited version. Pending edits of the previous
// version are saved first.
func (s *EditSession) SelectVersion(vid string) error {
	s.mu.Lock()
	prev := s.update.Version
	s.mu.Unlock()
	if prev != vid {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	s.change(func(u *PromptUpdate) {
		u.Version = vid
		u.Activate = true
	})
	return nil
}

// SetTitle edits the display title
func (s *EditSession) SetTitle(v string) { s.change(func(u *PromptUpdate) { u.DisplayTitle = &v }) }

// SetAuthor edits the author
func (s *EditSession) SetAuthor(v string) { s.change(func(u *PromptUpdate) { u.Author = &v }) }

// SetTag edits the tag
func (s *EditSession) SetTag(v string) { s.change(func(u *PromptUpdate) { u.Tag = &v }) }

// SetDraft edits the draft flag
func (s *EditSession) SetDraft(v bool) { s.change(func(u *PromptUpdate) { u.Draft = &v }) }

// SetName edits the selected version's name
func (s *EditSession) SetName(v string) { s.change(func(u *PromptUpdate) { u.Name = &v }) }

// SetDescription edits the selected version's description
func (s *EditSession) SetDescription(v string) {
	s.change(func(u *PromptUpdate) { u.Description = &v })
}

// SetContent edits the selected version's content
func (s *EditSession) SetContent(v string) { s.change(func(u *PromptUpdate) { u.Content = &v }) }

// Pending reports whether edits are waiting to be saved, including edits
// kept back by a failed save
func (s *EditSession) Pending() bool {
	if s.debounce.Pending() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.update.IsEmpty()
}

// Changed reports whether any edit was made during the session
func (s *EditSession) Changed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Flush saves pending edits now and waits for a save already under way.
// Edits kept back by a failed save are retried.
func (s *EditSession) Flush() error {
	if !s.debounce.Flush() {
		s.mu.Lock()
		retry := !s.update.IsEmpty() && s.lastErr != nil
		s.mu.Unlock()
		if retry {
			s.save()
		}
	}
	return s.Err()
}

// Close saves pending edits and ends the session
func (s *EditSession) Close() error {
	return s.Flush()
}

// Discard drops pending edits
func (s *EditSession) Discard() {
	s.debounce.Cancel()
	s.mu.Lock()
	s.update = PromptUpdate{Version: s.update.Version}
	s.mu.Unlock()
}

// Err returns the error of the last save
func (s *EditSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *EditSession) change(apply func(*PromptUpdate)) {
	s.mu.Lock()
	apply(&s.update)
	s.changed = true
	s.mu.Unlock()
	s.debounce.Schedule(s.save)
}

func (s *EditSession) save() {
	s.mu.Lock()
	update := s.update
	s.update = PromptUpdate{Version: update.Version}
	onSave := s.onSave
	s.mu.Unlock()

	err := s.lib.UpdatePrompt(s.id, update)
	if err != nil {
		LogError("Autosave of %s failed: %v", s.id, err)
	}

	s.mu.Lock()
	s.lastErr = err
	if err != nil {
		s.update = mergeUpdates(update, s.update)
	}
	s.mu.Unlock()
	if onSave != nil {
		onSave(s.id, err)
	}
}

// mergeUpdates lays newer over older; fields set in newer win
func mergeUpdates(older, newer PromptUpdate) PromptUpdate {
	out := older
	if newer.Version != "" {
		out.Version = newer.Version
	}
	if newer.Tag != nil {
		out.Tag = newer.Tag
	}
	if newer.Author != nil {
		out.Author = newer.Author
	}
	if newer.DisplayTitle != nil {
		out.DisplayTitle = newer.DisplayTitle
	}
	if newer.Draft != nil {
		out.Draft = newer.Draft
	}
	if newer.Name != nil {
		out.Name = newer.Name
	}
	if newer.Description != nil {
		out.Description = newer.Description
	}
	if newer.Content != nil {
		out.Content = newer.Content
	}
	out.Activate = older.Activate || newer.Activate
	return out
}
