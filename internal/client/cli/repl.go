package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error
	Friend(ctx context.Context, args []string) error
	Friends(ctx context.Context, args []string) error
	Groups(ctx context.Context, args []string) error
	CreateGroup(ctx context.Context, args []string) error
	Members(ctx context.Context, args []string) error
	Leave(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Icon(ctx context.Context, args []string) error
}

const (
	guestHelp = "Available commands: signup <email> <password> <username>, login <email> <password>, exit"
	userHelp  = "Available commands: friend <id>, friends, groups, creategroup <name> [id...], members <group>, " +
		"leave <group>, send <group> <text>, history <group> [n] [after], icon <group> <file>, passwd <old> <new>, logout, exit"
)

func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("chat> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(userHelp)
			} else {
				printlnFn(guestHelp)
			}
		case "signup":
			_ = a.Signup(ctx, args)
		case "login":
			_ = a.Login(ctx, args)
		case "logout":
			_ = a.Logout(ctx, args)
		case "passwd":
			_ = a.Passwd(ctx, args)
		case "friend":
			_ = a.Friend(ctx, args)
		case "friends":
			_ = a.Friends(ctx, args)
		case "g", "groups":
			_ = a.Groups(ctx, args)
		case "creategroup":
			_ = a.CreateGroup(ctx, args)
		case "members":
			_ = a.Members(ctx, args)
		case "leave":
			_ = a.Leave(ctx, args)
		case "send":
			_ = a.Send(ctx, args)
		case "h", "history":
			_ = a.History(ctx, args)
		case "icon":
			_ = a.Icon(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
