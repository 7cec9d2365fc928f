package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/memory"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource records how many existence lookups ran.
type countingSource struct {
	Source
	older, newer int
}

func (c *countingSource) ExistsOlder(ctx context.Context, groupID, id int64) (bool, error) {
	c.older++
	return c.Source.ExistsOlder(ctx, groupID, id)
}

func (c *countingSource) ExistsNewer(ctx context.Context, groupID, id int64) (bool, error) {
	c.newer++
	return c.Source.ExistsNewer(ctx, groupID, id)
}

// seed creates a group with n messages and returns its id.
func seed(t *testing.T, n int) (*memory.MessageRepository, int64) {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	u, err := s.Users().Create(ctx, &models.User{Email: "a@example.com"})
	require.NoError(t, err)
	g, err := s.Groups().Create(ctx, &models.Group{Name: "g"})
	require.NoError(t, err)
	repo := s.Messages()
	for i := 0; i < n; i++ {
		_, err := repo.Create(ctx, &models.Message{GroupID: g.ID, UserID: u.ID, Text: "m"})
		require.NoError(t, err)
	}
	return repo, g.ID
}

func nodeIDs(c *Connection) []int64 {
	ids := make([]int64, len(c.Edges))
	for i, e := range c.Edges {
		ids[i] = e.Node.ID
	}
	return ids
}

func mustPage(t *testing.T, src Source, groupID int64, args Args) *Connection {
	t.Helper()
	w, err := DefaultLimits.Resolve(args)
	require.NoError(t, err)
	c, err := Paginate(context.Background(), src, groupID, w)
	require.NoError(t, err)
	return c
}

func flags(t *testing.T, c *Connection) (next, prev bool) {
	t.Helper()
	next, err := c.HasNextPage(context.Background())
	require.NoError(t, err)
	prev, err = c.HasPreviousPage(context.Background())
	require.NoError(t, err)
	return next, prev
}

func TestPaginate_ForwardScenario(t *testing.T) {
	repo, gid := seed(t, 5) // ids 1..5

	page := mustPage(t, repo, gid, Args{First: ptr(2)})
	assert.Equal(t, []int64{5, 4}, nodeIDs(page))
	next, prev := flags(t, page)
	assert.True(t, next)
	assert.False(t, prev)

	page = mustPage(t, repo, gid, Args{First: ptr(2), After: ptr(page.EndCursor())})
	assert.Equal(t, []int64{3, 2}, nodeIDs(page))
	next, prev = flags(t, page)
	assert.True(t, next)
	assert.True(t, prev)

	page = mustPage(t, repo, gid, Args{First: ptr(2), After: ptr(page.EndCursor())})
	assert.Equal(t, []int64{1}, nodeIDs(page))
	next, prev = flags(t, page)
	assert.False(t, next)
	assert.True(t, prev)
	assert.Equal(t, EncodeCursor(1), page.StartCursor())
}

func TestPaginate_Backward(t *testing.T) {
	repo, gid := seed(t, 5)

	page := mustPage(t, repo, gid, Args{Last: ptr(2), Before: ptr(EncodeCursor(2))})
	assert.Equal(t, []int64{4, 3}, nodeIDs(page), "edges stay newest first")
	next, prev := flags(t, page)
	assert.True(t, next)
	assert.True(t, prev, "truncated backward window")

	page = mustPage(t, repo, gid, Args{Last: ptr(2), Before: ptr(EncodeCursor(3))})
	assert.Equal(t, []int64{5, 4}, nodeIDs(page))
	next, prev = flags(t, page)
	assert.True(t, next)
	assert.False(t, prev)

	page = mustPage(t, repo, gid, Args{Last: ptr(2), Before: ptr(EncodeCursor(5))})
	assert.Empty(t, page.Edges)
	next, prev = flags(t, page)
	assert.True(t, next, "the before cursor itself remains")
	assert.False(t, prev)
}

func TestPaginate_EmptyGroup(t *testing.T) {
	repo, gid := seed(t, 0)

	page := mustPage(t, repo, gid, Args{})
	assert.Empty(t, page.Edges)
	assert.Empty(t, page.StartCursor())
	next, prev := flags(t, page)
	assert.False(t, next)
	assert.False(t, prev)
}

func TestPaginate_WalksEveryMessageOnce(t *testing.T) {
	for _, tc := range []struct{ n, k int }{{10, 3}, {9, 3}, {1, 5}, {25, 1}} {
		repo, gid := seed(t, tc.n)

		seen := map[int64]bool{}
		var order []int64
		args := Args{First: ptr(tc.k)}
		pages := 0
		for {
			page := mustPage(t, repo, gid, args)
			pages++
			for _, id := range nodeIDs(page) {
				require.False(t, seen[id], "duplicate %d", id)
				seen[id] = true
				order = append(order, id)
			}
			next, err := page.HasNextPage(context.Background())
			require.NoError(t, err)
			if !next {
				break
			}
			args = Args{First: ptr(tc.k), After: ptr(page.EndCursor())}
		}

		assert.Len(t, seen, tc.n)
		assert.Equal(t, (tc.n+tc.k-1)/tc.k, pages)
		for i := 1; i < len(order); i++ {
			assert.Greater(t, order[i-1], order[i])
		}
	}
}

func TestPaginate_FlagsMatchExistence(t *testing.T) {
	repo, gid := seed(t, 7)
	ctx := context.Background()

	for size := 1; size <= 8; size++ {
		for bound := int64(1); bound <= 8; bound++ {
			for _, backward := range []bool{false, true} {
				w := Window{Backward: backward, Size: size, Bound: bound}
				page, err := Paginate(ctx, repo, gid, w)
				require.NoError(t, err)
				next, prev := flags(t, page)

				if len(page.Edges) == 0 {
					continue
				}
				oldest := page.Edges[len(page.Edges)-1].Node.ID
				wantNext, _ := repo.ExistsOlder(ctx, gid, oldest)
				assert.Equal(t, wantNext, next, "next size=%d bound=%d backward=%v", size, bound, backward)

				boundary := page.Edges[0].Node.ID
				if !backward {
					boundary = bound
				}
				wantPrev, _ := repo.ExistsNewer(ctx, gid, boundary)
				assert.Equal(t, wantPrev, prev, "prev size=%d bound=%d backward=%v", size, bound, backward)
			}
		}
	}
}

func TestPaginate_FlagsAreLazyAndMemoized(t *testing.T) {
	repo, gid := seed(t, 5)
	src := &countingSource{Source: repo}

	page := mustPage(t, src, gid, Args{First: ptr(5)})
	assert.Zero(t, src.older+src.newer, "no lookup before a flag is read")

	for i := 0; i < 3; i++ {
		_, _ = page.HasNextPage(context.Background())
	}
	assert.Equal(t, 1, src.older)
	assert.Zero(t, src.newer)

	page = mustPage(t, src, gid, Args{First: ptr(2)})
	_, _ = page.HasNextPage(context.Background())
	assert.Equal(t, 1, src.older, "truncation answers without a lookup")
}

type failingSource struct{ Source }

func (failingSource) List(context.Context, messages.Query) ([]*models.Message, error) {
	return nil, errors.New("db down")
}

func TestPaginate_SourceError(t *testing.T) {
	repo, gid := seed(t, 1)
	_, err := Paginate(context.Background(), failingSource{repo}, gid, Window{Size: 1})
	require.Error(t, err)
}

// flakySource fails the first n existence lookups.
type flakySource struct {
	Source
	failures, calls int
}

func (f *flakySource) ExistsOlder(ctx context.Context, groupID, id int64) (bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return false, errors.New("db down")
	}
	return f.Source.ExistsOlder(ctx, groupID, id)
}

func TestPaginate_FailedLookupIsRetried(t *testing.T) {
	repo, gid := seed(t, 5)
	src := &flakySource{Source: repo, failures: 1}

	page := mustPage(t, src, gid, Args{First: ptr(5)})

	_, err := page.HasNextPage(context.Background())
	require.Error(t, err)

	next, err := page.HasNextPage(context.Background())
	require.NoError(t, err)
	assert.False(t, next)

	_, err = page.HasNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
