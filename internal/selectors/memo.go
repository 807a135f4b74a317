package selectors

import (
	"reflect"
	"sync"

	"github.com/zmirror/zmirror/internal/models"
	"github.com/zmirror/zmirror/internal/narrow"
	"github.com/zmirror/zmirror/internal/store"
)

// Memo caches the expensive derived views. Reducers return their input
// untouched when an action changed nothing, so a view's inputs can be
// fingerprinted by the identity of the underlying maps and slices; a hit
// means the cached result is still exactly right. One Memo belongs to one
// reader (typically the owner of the Store); the zero value is not usable,
// call NewMemo.
type Memo struct {
	mu sync.Mutex

	unreadFP     unreadFingerprint
	unreadValid  bool
	unreadTotals UnreadTotals

	narrowFP    map[string]narrowFingerprint
	narrowItems map[string][]models.ChatItem
}

// NewMemo returns an empty cache.
func NewMemo() *Memo {
	return &Memo{
		narrowFP:    make(map[string]narrowFingerprint),
		narrowItems: make(map[string][]models.ChatItem),
	}
}

type unreadFingerprint struct {
	streams  uintptr
	huddles  uintptr
	pms      uintptr
	mentions uintptr
	mlen     int
}

type narrowFingerprint struct {
	messages uintptr
	outbox   uintptr
	olen     int
	// Flag-based narrows (is:starred, is:mentioned) read the flags
	// store, so its identity is part of the key too.
	starred   uintptr
	mentioned uintptr
	wildcard  uintptr
}

// ref fingerprints a map or slice by its data pointer. Nil values
// fingerprint to zero, which is fine: they also compare equal by content.
func ref(v any) uintptr {
	rv := reflect.ValueOf(v)
	if rv.IsNil() {
		return 0
	}
	return rv.Pointer()
}

// UnreadTotals returns the memoized unread summary.
func (c *Memo) UnreadTotals(s store.State) UnreadTotals {
	fp := unreadFingerprint{
		streams:  ref(s.Unread.Streams),
		huddles:  ref(s.Unread.Huddles),
		pms:      ref(s.Unread.PMs),
		mentions: ref(s.Unread.Mentions),
		mlen:     len(s.Unread.Mentions),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unreadValid && c.unreadFP == fp {
		return c.unreadTotals
	}
	c.unreadTotals = computeUnreadTotals(s.Unread)
	c.unreadFP = fp
	c.unreadValid = true
	return c.unreadTotals
}

// MessagesForNarrow returns the memoized combined message/outbox list for
// one narrow, ordered by id with provisional items last.
func (c *Memo) MessagesForNarrow(s store.State, n narrow.Narrow) []models.ChatItem {
	key := n.Key()
	fp := narrowFingerprint{
		messages:  ref(map[models.MessageID]*models.Message(s.Messages)),
		outbox:    ref([]models.Outbox(s.Outbox)),
		olen:      len(s.Outbox),
		starred:   ref(map[models.MessageID]bool(s.Flags.Starred)),
		mentioned: ref(map[models.MessageID]bool(s.Flags.Mentioned)),
		wildcard:  ref(map[models.MessageID]bool(s.Flags.WildcardMentioned)),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.narrowFP[key]; ok && cached == fp {
		return c.narrowItems[key]
	}
	items := computeMessagesForNarrow(s, n)
	c.narrowFP[key] = fp
	c.narrowItems[key] = items
	return items
}

// Invalidate drops every cached view; used on account-level resets.
func (c *Memo) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unreadValid = false
	c.narrowFP = make(map[string]narrowFingerprint)
	c.narrowItems = make(map[string][]models.ChatItem)
}
