package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	gs "github.com/dmitrijs2005/groupchat/internal/server/grpc"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
)

var errUsage = errors.New("usage")

func usage(text string) error {
	printlnFn("Usage:", text)
	return errUsage
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// idArg parses the leading id or prints the usage line.
func idArg(args []string, text string) (int64, error) {
	if len(args) < 1 {
		return 0, usage(text)
	}
	id, err := parseID(args[0])
	if err != nil {
		printlnFn("Error:", err)
		return 0, err
	}
	return id, nil
}

func (a *App) Signup(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage("signup <email> <password> <username>")
	}
	if err := a.call(ctx, func(ctx context.Context) error { return a.client.Signup(ctx, args[0], args[1], args[2]) }); err != nil {
		return err
	}
	printlnFn("Welcome,", a.status())
	return nil
}

func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("login <email> <password>")
	}
	if err := a.call(ctx, func(ctx context.Context) error { return a.client.Login(ctx, args[0], args[1]) }); err != nil {
		return err
	}
	printlnFn("Logged in as", a.status())
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.call(ctx, a.client.Logout); err != nil {
		return err
	}
	printlnFn("Logged out on all devices")
	return nil
}

func (a *App) Passwd(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("passwd <old> <new>")
	}
	if err := a.call(ctx, func(ctx context.Context) error { return a.client.ChangePassword(ctx, args[0], args[1]) }); err != nil {
		return err
	}
	printlnFn("Password changed, other sessions were closed")
	return nil
}

func (a *App) Friend(ctx context.Context, args []string) error {
	id, err := idArg(args, "friend <user id>")
	if err != nil {
		return err
	}
	if err := a.call(ctx, func(ctx context.Context) error { return a.client.AddFriend(ctx, id) }); err != nil {
		return err
	}
	printlnFn("Friend added:", id)
	return nil
}

func (a *App) Friends(ctx context.Context, _ []string) error {
	var users []*gs.User
	err := a.call(ctx, func(ctx context.Context) (err error) {
		users, err = a.client.Friends(ctx)
		return err
	})
	if err != nil {
		return err
	}
	printUsers(users)
	return nil
}

func (a *App) Groups(ctx context.Context, _ []string) error {
	var groups []*gs.Group
	err := a.call(ctx, func(ctx context.Context) (err error) {
		groups, err = a.client.Groups(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		printlnFn("No groups")
	}
	for _, g := range groups {
		printlnFn(fmt.Sprintf("%6d  %s", g.ID, g.Name))
	}
	return nil
}

func (a *App) CreateGroup(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("creategroup <name> [user id...]")
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	var g *gs.Group
	err = a.call(ctx, func(ctx context.Context) (err error) {
		g, err = a.client.CreateGroup(ctx, args[0], ids)
		return err
	})
	if err != nil {
		return err
	}
	printlnFn("Group created:", g.ID)
	return nil
}

func (a *App) Members(ctx context.Context, args []string) error {
	id, err := idArg(args, "members <group id>")
	if err != nil {
		return err
	}
	var users []*gs.User
	err = a.call(ctx, func(ctx context.Context) (err error) {
		users, err = a.client.Members(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	printUsers(users)
	return nil
}

func (a *App) Leave(ctx context.Context, args []string) error {
	id, err := idArg(args, "leave <group id>")
	if err != nil {
		return err
	}
	if err := a.call(ctx, func(ctx context.Context) error { return a.client.LeaveGroup(ctx, id) }); err != nil {
		return err
	}
	printlnFn("Left group", id)
	return nil
}

func (a *App) Send(ctx context.Context, args []string) error {
	id, err := idArg(args, "send <group id> <text>")
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return usage("send <group id> <text>")
	}
	text := strings.Join(args[1:], " ")
	var msg *gs.Message
	err = a.call(ctx, func(ctx context.Context) (err error) {
		msg, err = a.client.Send(ctx, id, text)
		return err
	})
	if err != nil {
		return err
	}
	printlnFn("Sent", msg.ID)
	return nil
}

// History prints one page, newest first, and the cursor to continue from.
func (a *App) History(ctx context.Context, args []string) error {
	id, err := idArg(args, "history <group id> [count] [after cursor]")
	if err != nil {
		return err
	}
	var page pagination.Args
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return usage("history <group id> [count] [after cursor]")
		}
		page.First = &n
	}
	if len(args) > 2 {
		page.After = &args[2]
	}

	var resp *gs.MessagesResponse
	err = a.call(ctx, func(ctx context.Context) (err error) {
		resp, err = a.client.History(ctx, id, page)
		return err
	})
	if err != nil {
		return err
	}
	for _, e := range resp.Edges {
		m := e.Node
		printlnFn(fmt.Sprintf("[%s] #%d: %s", m.CreatedAt.Format("2006-01-02 15:04"), m.UserID, m.Text))
	}
	if resp.PageInfo != nil && resp.PageInfo.HasNextPage {
		printlnFn("More:", "history", id, len(resp.Edges), resp.PageInfo.EndCursor)
	}
	return nil
}

// Icon uploads a local image as the group icon.
func (a *App) Icon(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("icon <group id> <file>")
	}
	id, err := idArg(args, "icon <group id> <file>")
	if err != nil {
		return err
	}
	body, err := a.readFile(args[1])
	if err != nil {
		printlnFn("Error:", err)
		return err
	}

	var key, url string
	err = a.call(ctx, func(ctx context.Context) (err error) {
		key, url, err = a.client.IconUploadURL(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	if err := a.call(ctx, func(ctx context.Context) error { return a.upload(ctx, url, iconContentType(args[1], body), body) }); err != nil {
		return err
	}
	if err := a.call(ctx, func(ctx context.Context) error {
		_, err := a.client.SetIcon(ctx, id, key)
		return err
	}); err != nil {
		return err
	}
	printlnFn("Icon updated:", key)
	return nil
}

func iconContentType(name string, body []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	}
	return http.DetectContentType(body)
}

func printUsers(users []*gs.User) {
	if len(users) == 0 {
		printlnFn("Nobody here")
	}
	for _, u := range users {
		printlnFn(fmt.Sprintf("%6d  %s", u.ID, u.Username))
	}
}
