// Package browse navigates the remote folder tree used to pick a
// source document for parsing.
package browse

import (
	"context"
	"strings"
	"sync"

	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
	"github.com/yisunguk/drawing-detector-sub003/pkg/logger"
	"github.com/yisunguk/drawing-detector-sub003/service"
)

// RootPolicy maps a username to the storage root it may browse. The
// designated admin navigates from the tree root; everyone else is
// confined to their own json folder and cannot ascend above it.
type RootPolicy struct {
	Admin string
}

// RootFor returns the browse root of a user.
func (p RootPolicy) RootFor(username string) string {
	if username != "" && username == p.Admin {
		return ""
	}
	return username + "/json/"
}

// Allows reports whether path stays inside the user's root.
func (p RootPolicy) Allows(username, path string) bool {
	return strings.HasPrefix(path, p.RootFor(username))
}

// Browser is the navigation state machine: Idle while closed, Listing
// of exactly one path while open. A file entry can be held as the
// pending selection; only an explicit Confirm promotes it to the
// parse target.
type Browser struct {
	policy RootPolicy
	lister service.Lister

	mu      sync.Mutex
	open    bool
	root    string
	path    string
	entries []model.BrowseEntry
	pending *model.BrowseEntry
}

func New(policy RootPolicy, lister service.Lister) *Browser {
	return &Browser{policy: policy, lister: lister}
}

// Open starts a listing session at the user's root.
func (b *Browser) Open(ctx context.Context, username string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = true
	b.root = b.policy.RootFor(username)
	b.path = b.root
	b.pending = nil
	b.refresh(ctx)
}

// Close returns the browser to idle, discarding any pending selection.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = false
	b.root = ""
	b.path = ""
	b.entries = nil
	b.pending = nil
}

// Navigate descends into a folder, or records a file as the pending
// selection. Entering a folder clears any pending file. Entries
// outside the user's root are refused, like Up.
func (b *Browser) Navigate(ctx context.Context, entry model.BrowseEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return
	}
	if !strings.HasPrefix(entry.Path, b.root) {
		logger.Warn(ctx, "navigation outside browse root refused", "path", entry.Path, "root", b.root)
		return
	}

	switch entry.Type {
	case model.EntryFolder:
		b.pending = nil
		b.path = entry.Path
		b.refresh(ctx)
	case model.EntryFile:
		e := entry
		b.pending = &e
	}
}

// Up ascends one path segment. No-op at the user's root, and refuses
// any parent that would fall outside it.
func (b *Browser) Up(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open || b.path == b.root || b.path == "" {
		return
	}

	parent := parentPath(b.path)
	if !strings.HasPrefix(parent, b.root) {
		return
	}

	b.pending = nil
	b.path = parent
	b.refresh(ctx)
}

// Confirm promotes the pending file to the parse target and closes the
// browser. Fails when nothing is selected.
func (b *Browser) Confirm() (model.BrowseEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil {
		return model.BrowseEntry{}, apperr.Validation("분석할 파일을 먼저 선택해 주세요")
	}

	target := *b.pending
	b.open = false
	b.root = ""
	b.path = ""
	b.entries = nil
	b.pending = nil
	return target, nil
}

// IsOpen reports whether a listing session is active.
func (b *Browser) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Path returns the currently listed path.
func (b *Browser) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// Entries returns the children of the current path.
func (b *Browser) Entries() []model.BrowseEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.BrowseEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Selected returns the pending file selection, or nil.
func (b *Browser) Selected() *model.BrowseEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return nil
	}
	e := *b.pending
	return &e
}

// refresh fetches the listing of the current path. A failed fetch
// clears the entry list instead of keeping stale data; the browser
// stays in its current listing state. Must be called with the lock
// held.
func (b *Browser) refresh(ctx context.Context) {
	entries, err := b.lister.List(ctx, b.path)
	if err != nil {
		logger.Warn(ctx, "listing fetch failed, clearing entries", "path", b.path, "error", err)
		b.entries = nil
		return
	}
	b.entries = entries
}

// parentPath strips the last segment of a slash-terminated path:
// "alice/json/sub/" becomes "alice/json/".
func parentPath(p string) string {
	trimmed := strings.TrimSuffix(p, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return ""
	}
	return trimmed[:i+1]
}
