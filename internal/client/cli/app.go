package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/client/client"
	"github.com/dmitrijs2005/groupchat/internal/client/config"
	"github.com/dmitrijs2005/groupchat/internal/netx"
	gs "github.com/dmitrijs2005/groupchat/internal/server/grpc"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
)

var printlnFn = fmt.Println

// chatClient is the subset of client.GRPCClient the commands use.
type chatClient interface {
	LoggedIn() bool
	CurrentUser() *gs.User
	Ping(ctx context.Context) error
	Signup(ctx context.Context, email, password, username string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	AddFriend(ctx context.Context, friendID int64) error
	Friends(ctx context.Context) ([]*gs.User, error)
	Groups(ctx context.Context) ([]*gs.Group, error)
	CreateGroup(ctx context.Context, name string, userIDs []int64) (*gs.Group, error)
	LeaveGroup(ctx context.Context, groupID int64) error
	Members(ctx context.Context, groupID int64) ([]*gs.User, error)
	Send(ctx context.Context, groupID int64, text string) (*gs.Message, error)
	History(ctx context.Context, groupID int64, args pagination.Args) (*gs.MessagesResponse, error)
	IconUploadURL(ctx context.Context, groupID int64) (key, url string, err error)
	SetIcon(ctx context.Context, groupID int64, key string) (*gs.Group, error)
}

type App struct {
	client  chatClient
	timeout time.Duration

	readFile func(name string) ([]byte, error)
	upload   func(ctx context.Context, url, contentType string, body []byte) error
	closer   func() error
}

// NewApp prepares a client for cfg.ServerEndpointAddr. The connection is
// established lazily on the first call.
func NewApp(cfg *config.Config) (*App, error) {
	c, err := client.NewGRPCClient(cfg.ServerEndpointAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.ServerEndpointAddr, err)
	}
	a := newApp(c, cfg.RequestTimeout)
	a.closer = c.Close
	return a, nil
}

func newApp(c chatClient, timeout time.Duration) *App {
	return &App{
		client:   c,
		timeout:  timeout,
		readFile: os.ReadFile,
		upload:   netx.UploadToPresignedURL,
	}
}

func (a *App) isLoggedIn() bool { return a.client.LoggedIn() }

func (a *App) status() string {
	if u := a.client.CurrentUser(); u != nil && a.client.LoggedIn() {
		return fmt.Sprintf("%s#%d", u.Username, u.ID)
	}
	return "guest"
}

// call bounds a single request by the configured timeout.
func (a *App) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	err := fn(ctx)
	if err != nil {
		printlnFn("Error:", err)
	}
	return err
}

// Run runs the REPL on stdin until exit.
func (a *App) Run(ctx context.Context) {
	if a.closer != nil {
		defer a.closer()
	}
	if err := a.call(ctx, a.client.Ping); err != nil {
		printlnFn("Server is not reachable, commands will fail until it is up")
	}
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}
