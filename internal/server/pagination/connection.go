package pagination

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/messages"
)

// Source is the slice of the message store the engine reads from.
type Source interface {
	List(ctx context.Context, q messages.Query) ([]*models.Message, error)
	ExistsOlder(ctx context.Context, groupID, id int64) (bool, error)
	ExistsNewer(ctx context.Context, groupID, id int64) (bool, error)
}

type Edge struct {
	Cursor string          `json:"cursor"`
	Node   *models.Message `json:"node"`
}

// Connection is one page, newest first. The page-info flags are computed
// on first use and memoized.
type Connection struct {
	Edges []Edge

	hasNext lazyBool
	hasPrev lazyBool
}

// HasNextPage reports whether older messages exist past this page.
func (c *Connection) HasNextPage(ctx context.Context) (bool, error) {
	return c.hasNext.get(ctx)
}

// HasPreviousPage reports whether newer messages exist before this page.
func (c *Connection) HasPreviousPage(ctx context.Context) (bool, error) {
	return c.hasPrev.get(ctx)
}

// StartCursor is the cursor of the newest edge, empty for an empty page.
func (c *Connection) StartCursor() string {
	if len(c.Edges) == 0 {
		return ""
	}
	return c.Edges[0].Cursor
}

// EndCursor is the cursor of the oldest edge, empty for an empty page.
func (c *Connection) EndCursor() string {
	if len(c.Edges) == 0 {
		return ""
	}
	return c.Edges[len(c.Edges)-1].Cursor
}

// Paginate fetches one window of groupID's history. The window query reads
// one extra row to detect truncation.
func Paginate(ctx context.Context, src Source, groupID int64, w Window) (*Connection, error) {
	q := messages.Query{GroupID: groupID, Limit: w.Size + 1, Ascending: w.Backward}
	if w.Bound != 0 {
		bound := w.Bound
		if w.Backward {
			q.NewerThan = &bound
		} else {
			q.OlderThan = &bound
		}
	}

	rows, err := src.List(ctx, q)
	if err != nil {
		return nil, err
	}

	truncated := len(rows) > w.Size
	if truncated {
		rows = rows[:w.Size]
	}
	if w.Backward {
		slices.Reverse(rows)
	}

	conn := &Connection{Edges: make([]Edge, len(rows))}
	for i, m := range rows {
		conn.Edges[i] = Edge{Cursor: EncodeCursor(m.ID), Node: m}
	}

	var oldest, newest int64
	if len(rows) > 0 {
		newest, oldest = rows[0].ID, rows[len(rows)-1].ID
	}

	switch {
	case !w.Backward && truncated:
		conn.hasNext.set(true)
	case len(rows) > 0:
		conn.hasNext.lookup(func(ctx context.Context) (bool, error) { return src.ExistsOlder(ctx, groupID, oldest) })
	case w.Backward && w.Bound != 0:
		// The before cursor itself is the next item in list order.
		conn.hasNext.lookup(func(ctx context.Context) (bool, error) { return src.ExistsOlder(ctx, groupID, w.Bound+1) })
	default:
		conn.hasNext.set(false)
	}

	switch {
	case w.Backward && truncated:
		conn.hasPrev.set(true)
	case !w.Backward && w.Bound != 0:
		conn.hasPrev.lookup(func(ctx context.Context) (bool, error) { return src.ExistsNewer(ctx, groupID, w.Bound) })
	case len(rows) > 0:
		conn.hasPrev.lookup(func(ctx context.Context) (bool, error) { return src.ExistsNewer(ctx, groupID, newest) })
	default:
		conn.hasPrev.set(false)
	}

	return conn, nil
}

// lazyBool runs its lookup on first read and keeps the answer once the
// lookup succeeds. A failed lookup is retried on the next read.
type lazyBool struct {
	mu    sync.Mutex
	fn    func(ctx context.Context) (bool, error)
	done  bool
	value bool
}

func (l *lazyBool) set(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value, l.done = v, true
}

func (l *lazyBool) lookup(fn func(ctx context.Context) (bool, error)) {
	l.fn = fn
}

func (l *lazyBool) get(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done || l.fn == nil {
		return l.value, nil
	}
	v, err := l.fn(ctx)
	if err != nil {
		return false, err
	}
	l.value, l.done = v, true
	return l.value, nil
}
