package client

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/groupchat/internal/common"
	gs "github.com/dmitrijs2005/groupchat/internal/server/grpc"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const kindInvalidToken = "invalid_token"

type GRPCClient struct {
	conn *grpc.ClientConn

	mu    sync.RWMutex
	token string
	user  *gs.User
}

// NewGRPCClient connects to addr without transport security. Extra options
// are applied after the defaults.
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(c.tokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func withToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// tokenInterceptor attaches the session token and forgets it once the
// server reports it as invalid.
func (c *GRPCClient) tokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	token := c.Token()
	if token != "" {
		ctx = withToken(ctx, token)
	}

	var trailer metadata.MD
	err := invoker(ctx, method, req, reply, cc, append(opts, grpc.Trailer(&trailer))...)
	if err == nil || token == "" {
		return err
	}

	if errorKind(trailer) == kindInvalidToken {
		c.setSession("", nil)
	}
	return err
}

// errorKind reads the error kind the server reports in the trailer.
func errorKind(trailer metadata.MD) string {
	if v := trailer.Get(common.ErrorKindTrailerName); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c *GRPCClient) setSession(token string, user *gs.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.user = user
}

func (c *GRPCClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// CurrentUser returns the user of the current session, or nil.
func (c *GRPCClient) CurrentUser() *gs.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *GRPCClient) LoggedIn() bool { return c.Token() != "" }

func (c *GRPCClient) Close() error { return c.conn.Close() }

func invoke[Req, Resp any](ctx context.Context, c *GRPCClient, method string, in *Req) (*Resp, error) {
	out, err := gs.Invoke[Req, Resp](ctx, c.conn, method, in)
	return out, mapError(err)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	_, err := invoke[gs.Empty, gs.PingResponse](ctx, c, "Ping", &gs.Empty{})
	return err
}

func (c *GRPCClient) Signup(ctx context.Context, email, password, username string) error {
	resp, err := invoke[gs.SignupRequest, gs.SessionResponse](ctx, c, "Signup", &gs.SignupRequest{
		Email: email, Password: password, Username: username,
	})
	if err != nil {
		return err
	}
	c.setSession(resp.Token, resp.User)
	return nil
}

func (c *GRPCClient) Login(ctx context.Context, email, password string) error {
	resp, err := invoke[gs.LoginRequest, gs.SessionResponse](ctx, c, "Login", &gs.LoginRequest{
		Email: email, Password: password,
	})
	if err != nil {
		return err
	}
	c.setSession(resp.Token, resp.User)
	return nil
}

// Logout revokes every token of the user and forgets the local one even if
// the call fails.
func (c *GRPCClient) Logout(ctx context.Context) error {
	_, err := invoke[gs.Empty, gs.Empty](ctx, c, "Logout", &gs.Empty{})
	c.setSession("", nil)
	return err
}

func (c *GRPCClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	resp, err := invoke[gs.ChangePasswordRequest, gs.SessionResponse](ctx, c, "ChangePassword", &gs.ChangePasswordRequest{
		OldPassword: oldPassword, NewPassword: newPassword,
	})
	if err != nil {
		return err
	}
	c.setSession(resp.Token, resp.User)
	return nil
}

func (c *GRPCClient) AddFriend(ctx context.Context, friendID int64) error {
	_, err := invoke[gs.FriendRequest, gs.Empty](ctx, c, "AddFriend", &gs.FriendRequest{FriendID: friendID})
	return err
}

func (c *GRPCClient) Friends(ctx context.Context) ([]*gs.User, error) {
	resp, err := invoke[gs.UserRequest, gs.UsersResponse](ctx, c, "UserFriends", &gs.UserRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *GRPCClient) Groups(ctx context.Context) ([]*gs.Group, error) {
	resp, err := invoke[gs.UserRequest, gs.GroupsResponse](ctx, c, "UserGroups", &gs.UserRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

func (c *GRPCClient) CreateGroup(ctx context.Context, name string, userIDs []int64) (*gs.Group, error) {
	resp, err := invoke[gs.CreateGroupRequest, gs.GroupResponse](ctx, c, "CreateGroup", &gs.CreateGroupRequest{
		Name: name, UserIDs: userIDs,
	})
	if err != nil {
		return nil, err
	}
	return resp.Group, nil
}

func (c *GRPCClient) LeaveGroup(ctx context.Context, groupID int64) error {
	_, err := invoke[gs.GroupRequest, gs.Empty](ctx, c, "LeaveGroup", &gs.GroupRequest{GroupID: groupID})
	return err
}

func (c *GRPCClient) Members(ctx context.Context, groupID int64) ([]*gs.User, error) {
	resp, err := invoke[gs.GroupRequest, gs.UsersResponse](ctx, c, "GroupMembers", &gs.GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *GRPCClient) Send(ctx context.Context, groupID int64, text string) (*gs.Message, error) {
	resp, err := invoke[gs.CreateMessageRequest, gs.MessageResponse](ctx, c, "CreateMessage", &gs.CreateMessageRequest{
		GroupID: groupID, Text: text,
	})
	if err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// History reads one page of a group's messages, newest first, with page
// info.
func (c *GRPCClient) History(ctx context.Context, groupID int64, args pagination.Args) (*gs.MessagesResponse, error) {
	return invoke[gs.MessagesRequest, gs.MessagesResponse](ctx, c, "Messages", &gs.MessagesRequest{
		GroupID: groupID, Args: args, PageInfo: true,
	})
}

// IconUploadURL returns a presigned URL and the object key to store on the
// group once the upload succeeded.
func (c *GRPCClient) IconUploadURL(ctx context.Context, groupID int64) (key, url string, err error) {
	resp, err := invoke[gs.GroupRequest, gs.IconUploadResponse](ctx, c, "GroupIconUploadURL", &gs.GroupRequest{GroupID: groupID})
	if err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

func (c *GRPCClient) SetIcon(ctx context.Context, groupID int64, key string) (*gs.Group, error) {
	resp, err := invoke[gs.UpdateGroupRequest, gs.GroupResponse](ctx, c, "UpdateGroup", &gs.UpdateGroupRequest{
		GroupID: groupID, Icon: &key,
	})
	if err != nil {
		return nil, err
	}
	return resp.Group, nil
}
