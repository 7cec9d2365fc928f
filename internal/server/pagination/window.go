package pagination

import (
	"fmt"

	"github.com/dmitrijs2005/groupchat/internal/common"
)

// Args are the client-supplied window arguments. First/After select a
// forward (older) window, Last/Before a backward (newer) one.
type Args struct {
	First  *int    `json:"first,omitempty"`
	After  *string `json:"after,omitempty"`
	Last   *int    `json:"last,omitempty"`
	Before *string `json:"before,omitempty"`
}

// Window is a validated Args value.
type Window struct {
	Backward bool
	Size     int
	// Bound is the decoded cursor id, zero when absent.
	Bound int64
}

// Limits bounds window sizes.
type Limits struct {
	DefaultSize int
	MaxSize     int
}

// DefaultLimits are used when the configuration leaves them unset.
var DefaultLimits = Limits{DefaultSize: 20, MaxSize: 100}

// Normalize fills unset or inconsistent limits from DefaultLimits.
func (l Limits) Normalize() Limits {
	if l.DefaultSize <= 0 {
		l.DefaultSize = DefaultLimits.DefaultSize
	}
	if l.MaxSize < l.DefaultSize {
		l.MaxSize = max(l.DefaultSize, DefaultLimits.MaxSize)
	}
	return l
}

// Resolve validates args against the limits.
func (l Limits) Resolve(args Args) (Window, error) {
	l = l.Normalize()

	forward := args.First != nil || args.After != nil
	backward := args.Last != nil || args.Before != nil
	if forward && backward {
		return Window{}, fmt.Errorf("%w: forward and backward windows are mutually exclusive", common.ErrInvalidArgument)
	}

	w := Window{Backward: backward, Size: l.DefaultSize}

	count, cursor := args.First, args.After
	if backward {
		count, cursor = args.Last, args.Before
	}

	if count != nil {
		if *count <= 0 {
			return Window{}, fmt.Errorf("%w: page size must be positive", common.ErrInvalidArgument)
		}
		w.Size = min(*count, l.MaxSize)
	}

	if cursor != nil {
		id, err := DecodeCursor(*cursor)
		if err != nil {
			return Window{}, err
		}
		w.Bound = id
	}

	return w, nil
}
