package grpc

import (
	"time"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
)

type Empty struct{}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"groupId"`
	UserID    int64     `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type SessionResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UserRequest addresses a user; zero means the caller.
type UserRequest struct {
	UserID int64 `json:"userId,omitempty"`
}

type UpdateUserRequest struct {
	UserID   int64  `json:"userId,omitempty"`
	Username string `json:"username"`
}

type UserMessagesRequest struct {
	UserID int64 `json:"userId,omitempty"`
	Limit  int   `json:"limit,omitempty"`
}

type UserResponse struct {
	User *User `json:"user"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

type FriendRequest struct {
	FriendID int64 `json:"friendId"`
}

type CreateGroupRequest struct {
	Name    string  `json:"name"`
	UserIDs []int64 `json:"userIds,omitempty"`
}

// UpdateGroupRequest leaves absent fields unchanged. An empty icon clears
// it.
type UpdateGroupRequest struct {
	GroupID int64   `json:"groupId"`
	Name    *string `json:"name,omitempty"`
	Icon    *string `json:"icon,omitempty"`
}

type GroupRequest struct {
	GroupID int64 `json:"groupId"`
}

type AddGroupMembersRequest struct {
	GroupID int64   `json:"groupId"`
	UserIDs []int64 `json:"userIds"`
}

type GroupResponse struct {
	Group *Group `json:"group"`
}

type GroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type IconUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type IconURLResponse struct {
	URL string `json:"url"`
}

type CreateMessageRequest struct {
	GroupID int64  `json:"groupId"`
	Text    string `json:"text"`
}

type MessageResponse struct {
	Message *Message `json:"message"`
}

type MessageListResponse struct {
	Messages []*Message `json:"messages"`
}

// MessagesRequest reads one page of a group's history. Page info costs
// extra queries and is only computed when asked for.
type MessagesRequest struct {
	GroupID int64 `json:"groupId"`
	pagination.Args
	PageInfo bool `json:"pageInfo,omitempty"`
}

type Edge struct {
	Cursor string   `json:"cursor"`
	Node   *Message `json:"node"`
}

type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
}

type MessagesResponse struct {
	Edges    []Edge    `json:"edges"`
	PageInfo *PageInfo `json:"pageInfo,omitempty"`
}

type PingResponse struct {
	Status string `json:"status"`
}

func toUser(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Email: u.Email, Username: u.Username, CreatedAt: u.CreatedAt}
}

func toUsers(us []*models.User) []*User {
	out := make([]*User, 0, len(us))
	for _, u := range us {
		out = append(out, toUser(u))
	}
	return out
}

func toGroup(g *models.Group) *Group {
	if g == nil {
		return nil
	}
	return &Group{ID: g.ID, Name: g.Name, Icon: g.Icon, CreatedAt: g.CreatedAt}
}

func toGroups(gs []*models.Group) []*Group {
	out := make([]*Group, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGroup(g))
	}
	return out
}

func toMessage(m *models.Message) *Message {
	if m == nil {
		return nil
	}
	return &Message{ID: m.ID, GroupID: m.GroupID, UserID: m.UserID, Text: m.Text, CreatedAt: m.CreatedAt}
}

func toMessages(ms []*models.Message) []*Message {
	out := make([]*Message, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMessage(m))
	}
	return out
}
