package picker

import (
	"sync"
	"sync/atomic"

	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/loader"
)

// Bridge forwards loader and search callbacks to a running program. It is
// the loader's View and a loader Subscriber, and its Results method is the
// search engine's result callback. All of them run on the UI executor.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)

	visible atomic.Int64
}

// NewBridge returns a Bridge that drops messages until Attach is called.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach starts forwarding messages to send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

// Detach stops forwarding.
func (b *Bridge) Detach() {
	b.Attach(nil)
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// Results delivers a search result list.
func (b *Bridge) Results(entries []catalog.Entry) {
	apps := 0
	for _, e := range entries {
		if e.Kind == catalog.KindApp {
			apps++
		}
	}
	b.visible.Store(int64(apps))
	b.post(resultsMsg(entries))
}

// VisibleLen counts the catalog entries on screen. Fallback rows are always
// shown and do not count.
func (b *Bridge) VisibleLen() int {
	return int(b.visible.Load())
}

func (b *Bridge) ShowNoEntries() {
	b.post(noEntriesMsg{})
}

func (b *Bridge) ShowError(err error) {
	b.post(errorMsg{err})
}

// OnInit implements loader.Subscriber.
func (b *Bridge) OnInit(s loader.Snapshot) { b.OnSnapshot(s) }

// OnSnapshot implements loader.Subscriber.
func (b *Bridge) OnSnapshot(s loader.Snapshot) {
	b.post(snapshotMsg(s.Stage))
}
