package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/auth"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/groupchat/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type countingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingObserver) RequestObserved(method, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method+" "+kind]++
}

func (c *countingObserver) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

type harness struct {
	conn     *grpc.ClientConn
	observer *countingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	m := repomanager.NewInMemoryRepositoryManager()
	tokens := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"))
	bus := events.NewBus(8, logging.Nop())
	svc := services.NewService(m, tokens, bus, nil, nil, pagination.DefaultLimits, logging.Nop())
	resolver := principal.NewResolver(tokens, m.Repos().Users)
	observer := &countingObserver{calls: map[string]int{}}

	s := NewGRPCServer("bufconn", logging.Nop(), svc, resolver, observer)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return &harness{conn: conn, observer: observer}
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func call[Req, Resp any](t *testing.T, h *harness, ctx context.Context, method string, in *Req) (*Resp, string, error) {
	t.Helper()
	var trailer metadata.MD
	out, err := Invoke[Req, Resp](ctx, h.conn, method, in, grpc.Trailer(&trailer))
	kind := ""
	if v := trailer.Get("x-error-kind"); len(v) > 0 {
		kind = v[0]
	}
	return out, kind, err
}

func signup(t *testing.T, h *harness, name string) *SessionResponse {
	t.Helper()
	resp, _, err := call[SignupRequest, SessionResponse](t, h, context.Background(), "Signup", &SignupRequest{
		Email:    name + "@example.com",
		Password: "password-" + name,
		Username: name,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", name, err)
	}
	return resp
}

func TestPingWithoutToken(t *testing.T) {
	h := newHarness(t)

	resp, kind, err := call[Empty, PingResponse](t, h, context.Background(), "Ping", &Empty{})
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if resp.Status != "OK" || kind != "" {
		t.Fatalf("unexpected ping response %+v kind=%q", resp, kind)
	}
}

func TestAnonymousCallReportsUnauthorized(t *testing.T) {
	h := newHarness(t)

	_, kind, err := call[UserRequest, UserResponse](t, h, context.Background(), "User", &UserRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
	if kind != "unauthorized" {
		t.Fatalf("kind = %q, want unauthorized", kind)
	}
	if h.observer.count("/groupchat.v1.ChatService/User unauthorized") != 1 {
		t.Fatal("request not observed")
	}
}

func TestBadTokenReportsInvalidToken(t *testing.T) {
	h := newHarness(t)

	_, kind, err := call[UserRequest, UserResponse](t, h, withToken("not-a-jwt"), "User", &UserRequest{})
	if status.Code(err) != codes.Unauthenticated || kind != "invalid_token" {
		t.Fatalf("got code=%v kind=%q", status.Code(err), kind)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Basic abc")
	_, kind, err = call[UserRequest, UserResponse](t, h, ctx, "User", &UserRequest{})
	if status.Code(err) != codes.Unauthenticated || kind != "invalid_token" {
		t.Fatalf("got code=%v kind=%q", status.Code(err), kind)
	}
}

func TestEndToEndChat(t *testing.T) {
	h := newHarness(t)
	alice := signup(t, h, "alice")
	bob := signup(t, h, "bob")

	if _, _, err := call[FriendRequest, Empty](t, h, withToken(alice.Token), "AddFriend", &FriendRequest{FriendID: bob.User.ID}); err != nil {
		t.Fatalf("add friend: %v", err)
	}

	g, _, err := call[CreateGroupRequest, GroupResponse](t, h, withToken(alice.Token), "CreateGroup", &CreateGroupRequest{
		Name:    "team",
		UserIDs: []int64{bob.User.ID},
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	for _, text := range []string{"one", "two", "three"} {
		if _, _, err := call[CreateMessageRequest, MessageResponse](t, h, withToken(bob.Token), "CreateMessage", &CreateMessageRequest{
			GroupID: g.Group.ID, Text: text,
		}); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	first := 2
	page, _, err := call[MessagesRequest, MessagesResponse](t, h, withToken(alice.Token), "Messages", &MessagesRequest{
		GroupID:  g.Group.ID,
		Args:     pagination.Args{First: &first},
		PageInfo: true,
	})
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(page.Edges) != 2 || page.Edges[0].Node.Text != "three" || page.Edges[1].Node.Text != "two" {
		t.Fatalf("unexpected edges: %+v", page.Edges)
	}
	if page.PageInfo == nil || !page.PageInfo.HasNextPage || page.PageInfo.HasPreviousPage {
		t.Fatalf("unexpected page info: %+v", page.PageInfo)
	}

	after := page.PageInfo.EndCursor
	rest, _, err := call[MessagesRequest, MessagesResponse](t, h, withToken(alice.Token), "Messages", &MessagesRequest{
		GroupID: g.Group.ID,
		Args:    pagination.Args{After: &after},
	})
	if err != nil {
		t.Fatalf("messages after: %v", err)
	}
	if len(rest.Edges) != 1 || rest.Edges[0].Node.Text != "one" || rest.PageInfo != nil {
		t.Fatalf("unexpected second page: %+v", rest)
	}

	carol := signup(t, h, "carol")
	_, kind, err := call[GroupRequest, GroupResponse](t, h, withToken(carol.Token), "Group", &GroupRequest{GroupID: g.Group.ID})
	if status.Code(err) != codes.Unauthenticated || kind != "unauthorized" {
		t.Fatalf("non-member got code=%v kind=%q", status.Code(err), kind)
	}

	_, kind, err = call[GroupRequest, GroupResponse](t, h, withToken(carol.Token), "Group", &GroupRequest{GroupID: g.Group.ID + 100})
	if status.Code(err) != codes.NotFound || kind != "not_found" {
		t.Fatalf("missing group got code=%v kind=%q", status.Code(err), kind)
	}
}

func TestErrorKindsAreMapped(t *testing.T) {
	h := newHarness(t)
	alice := signup(t, h, "alice")

	_, kind, err := call[SignupRequest, SessionResponse](t, h, context.Background(), "Signup", &SignupRequest{
		Email: "alice@example.com", Password: "password-x", Username: "x",
	})
	if status.Code(err) != codes.AlreadyExists || kind != "already_exists" {
		t.Fatalf("duplicate signup: code=%v kind=%q", status.Code(err), kind)
	}

	g, _, err := call[CreateGroupRequest, GroupResponse](t, h, withToken(alice.Token), "CreateGroup", &CreateGroupRequest{Name: "g"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	one, cursor := 1, "bad"
	_, kind, err = call[MessagesRequest, MessagesResponse](t, h, withToken(alice.Token), "Messages", &MessagesRequest{
		GroupID: g.Group.ID,
		Args:    pagination.Args{First: &one, Before: &cursor},
	})
	if status.Code(err) != codes.InvalidArgument || kind != "invalid_argument" {
		t.Fatalf("conflicting window: code=%v kind=%q", status.Code(err), kind)
	}

	_, kind, err = call[GroupRequest, IconUploadResponse](t, h, withToken(alice.Token), "GroupIconUploadURL", &GroupRequest{GroupID: g.Group.ID})
	if status.Code(err) != codes.Internal || kind != "internal" {
		t.Fatalf("unconfigured icons: code=%v kind=%q", status.Code(err), kind)
	}
	if st, _ := status.FromError(err); st.Message() != "internal error" {
		t.Fatalf("internal detail leaked: %q", st.Message())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness(t)
	alice := signup(t, h, "alice")

	if _, _, err := call[Empty, Empty](t, h, withToken(alice.Token), "Logout", &Empty{}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, kind, err := call[UserRequest, UserResponse](t, h, withToken(alice.Token), "User", &UserRequest{})
	if status.Code(err) != codes.Unauthenticated || kind != "invalid_token" {
		t.Fatalf("revoked token: code=%v kind=%q", status.Code(err), kind)
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Nop(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}
