package clipboard

import "sync"

// MemoryBackend is an in-process clipboard, used headless and in tests.
type MemoryBackend struct {
	mu      sync.Mutex
	cur     Snapshot
	writes  int
	readErr error
}

func NewMemoryBackend(initial Snapshot) *MemoryBackend {
	return &MemoryBackend{cur: initial}
}

// SetText simulates another application writing text.
func (b *MemoryBackend) SetText(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = TextSnapshot(s)
}

// FailReads makes every subsequent read fail with err (nil to heal).
func (b *MemoryBackend) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

// Current returns the content as it is now.
func (b *MemoryBackend) Current() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur
}

// Writes counts Restore and Clear calls.
func (b *MemoryBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *MemoryBackend) Snapshot() (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return Snapshot{}, b.readErr
	}
	return b.cur, nil
}

func (b *MemoryBackend) Restore(s Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = s
	b.writes++
	return nil
}

func (b *MemoryBackend) ReadText() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return "", b.readErr
	}
	if b.cur.format != FormatText {
		return "", nil
	}
	return string(b.cur.data), nil
}

func (b *MemoryBackend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = Snapshot{}
	b.writes++
	return nil
}
