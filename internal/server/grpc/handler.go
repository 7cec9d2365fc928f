package grpc

import (
	"context"

	"github.com/dmitrijs2005/groupchat/internal/server/services"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *Empty) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Signup(ctx context.Context, req *SignupRequest) (*SessionResponse, error) {
	session, err := s.mediator.Signup(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		return nil, err
	}
	return toSession(session), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*SessionResponse, error) {
	session, err := s.mediator.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return toSession(session), nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*SessionResponse, error) {
	session, err := s.mediator.ChangePassword(ctx, req.OldPassword, req.NewPassword)
	if err != nil {
		return nil, err
	}
	return toSession(session), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.mediator.Logout(ctx); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func toSession(session *services.Session) *SessionResponse {
	return &SessionResponse{User: toUser(session.User), Token: session.Token}
}

func (s *GRPCServer) User(ctx context.Context, req *UserRequest) (*UserResponse, error) {
	user, err := s.mediator.User(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: toUser(user)}, nil
}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error) {
	user, err := s.mediator.UpdateUser(ctx, req.UserID, req.Username)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: toUser(user)}, nil
}

func (s *GRPCServer) UserGroups(ctx context.Context, req *UserRequest) (*GroupsResponse, error) {
	groups, err := s.mediator.UserGroups(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &GroupsResponse{Groups: toGroups(groups)}, nil
}

func (s *GRPCServer) UserFriends(ctx context.Context, req *UserRequest) (*UsersResponse, error) {
	friends, err := s.mediator.UserFriends(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &UsersResponse{Users: toUsers(friends)}, nil
}

func (s *GRPCServer) UserMessages(ctx context.Context, req *UserMessagesRequest) (*MessageListResponse, error) {
	msgs, err := s.mediator.UserMessages(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, err
	}
	return &MessageListResponse{Messages: toMessages(msgs)}, nil
}

func (s *GRPCServer) AddFriend(ctx context.Context, req *FriendRequest) (*Empty, error) {
	if err := s.mediator.AddFriend(ctx, req.FriendID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *GRPCServer) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*GroupResponse, error) {
	group, err := s.mediator.CreateGroup(ctx, req.Name, req.UserIDs)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: toGroup(group)}, nil
}

func (s *GRPCServer) UpdateGroup(ctx context.Context, req *UpdateGroupRequest) (*GroupResponse, error) {
	group, err := s.mediator.UpdateGroup(ctx, req.GroupID, req.Name, req.Icon)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: toGroup(group)}, nil
}

func (s *GRPCServer) DeleteGroup(ctx context.Context, req *GroupRequest) (*Empty, error) {
	if err := s.mediator.DeleteGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *GRPCServer) LeaveGroup(ctx context.Context, req *GroupRequest) (*Empty, error) {
	if err := s.mediator.LeaveGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *GRPCServer) Group(ctx context.Context, req *GroupRequest) (*GroupResponse, error) {
	group, err := s.mediator.Group(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: toGroup(group)}, nil
}

func (s *GRPCServer) GroupMembers(ctx context.Context, req *GroupRequest) (*UsersResponse, error) {
	members, err := s.mediator.GroupMembers(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	return &UsersResponse{Users: toUsers(members)}, nil
}

func (s *GRPCServer) AddGroupMembers(ctx context.Context, req *AddGroupMembersRequest) (*GroupResponse, error) {
	group, err := s.mediator.AddGroupMembers(ctx, req.GroupID, req.UserIDs)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: toGroup(group)}, nil
}

func (s *GRPCServer) GroupIconUploadURL(ctx context.Context, req *GroupRequest) (*IconUploadResponse, error) {
	upload, err := s.mediator.GroupIconUploadURL(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	return &IconUploadResponse{Key: upload.Key, URL: upload.URL}, nil
}

func (s *GRPCServer) GroupIconURL(ctx context.Context, req *GroupRequest) (*IconURLResponse, error) {
	url, err := s.mediator.GroupIconURL(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	return &IconURLResponse{URL: url}, nil
}

func (s *GRPCServer) CreateMessage(ctx context.Context, req *CreateMessageRequest) (*MessageResponse, error) {
	msg, err := s.mediator.CreateMessage(ctx, req.GroupID, req.Text)
	if err != nil {
		return nil, err
	}
	return &MessageResponse{Message: toMessage(msg)}, nil
}

func (s *GRPCServer) Messages(ctx context.Context, req *MessagesRequest) (*MessagesResponse, error) {
	conn, err := s.mediator.Messages(ctx, req.GroupID, req.Args)
	if err != nil {
		return nil, err
	}

	resp := &MessagesResponse{Edges: make([]Edge, 0, len(conn.Edges))}
	for _, e := range conn.Edges {
		resp.Edges = append(resp.Edges, Edge{Cursor: e.Cursor, Node: toMessage(e.Node)})
	}

	if !req.PageInfo {
		return resp, nil
	}
	next, err := conn.HasNextPage(ctx)
	if err != nil {
		return nil, err
	}
	prev, err := conn.HasPreviousPage(ctx)
	if err != nil {
		return nil, err
	}
	resp.PageInfo = &PageInfo{
		HasNextPage:     next,
		HasPreviousPage: prev,
		StartCursor:     conn.StartCursor(),
		EndCursor:       conn.EndCursor(),
	}
	return resp, nil
}
