package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified name of the chat service.
const ServiceName = "groupchat.v1.ChatService"

// ChatServiceServer is the server API of the chat service.
type ChatServiceServer interface {
	Ping(context.Context, *Empty) (*PingResponse, error)

	Signup(context.Context, *SignupRequest) (*SessionResponse, error)
	Login(context.Context, *LoginRequest) (*SessionResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*SessionResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)

	User(context.Context, *UserRequest) (*UserResponse, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*UserResponse, error)
	UserGroups(context.Context, *UserRequest) (*GroupsResponse, error)
	UserFriends(context.Context, *UserRequest) (*UsersResponse, error)
	UserMessages(context.Context, *UserMessagesRequest) (*MessageListResponse, error)
	AddFriend(context.Context, *FriendRequest) (*Empty, error)

	CreateGroup(context.Context, *CreateGroupRequest) (*GroupResponse, error)
	UpdateGroup(context.Context, *UpdateGroupRequest) (*GroupResponse, error)
	DeleteGroup(context.Context, *GroupRequest) (*Empty, error)
	LeaveGroup(context.Context, *GroupRequest) (*Empty, error)
	Group(context.Context, *GroupRequest) (*GroupResponse, error)
	GroupMembers(context.Context, *GroupRequest) (*UsersResponse, error)
	AddGroupMembers(context.Context, *AddGroupMembersRequest) (*GroupResponse, error)
	GroupIconUploadURL(context.Context, *GroupRequest) (*IconUploadResponse, error)
	GroupIconURL(context.Context, *GroupRequest) (*IconURLResponse, error)

	CreateMessage(context.Context, *CreateMessageRequest) (*MessageResponse, error)
	Messages(context.Context, *MessagesRequest) (*MessagesResponse, error)
}

func unary[Req, Resp any](name string, call func(ChatServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ChatServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes the chat service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", ChatServiceServer.Ping),
		unary("Signup", ChatServiceServer.Signup),
		unary("Login", ChatServiceServer.Login),
		unary("ChangePassword", ChatServiceServer.ChangePassword),
		unary("Logout", ChatServiceServer.Logout),
		unary("User", ChatServiceServer.User),
		unary("UpdateUser", ChatServiceServer.UpdateUser),
		unary("UserGroups", ChatServiceServer.UserGroups),
		unary("UserFriends", ChatServiceServer.UserFriends),
		unary("UserMessages", ChatServiceServer.UserMessages),
		unary("AddFriend", ChatServiceServer.AddFriend),
		unary("CreateGroup", ChatServiceServer.CreateGroup),
		unary("UpdateGroup", ChatServiceServer.UpdateGroup),
		unary("DeleteGroup", ChatServiceServer.DeleteGroup),
		unary("LeaveGroup", ChatServiceServer.LeaveGroup),
		unary("Group", ChatServiceServer.Group),
		unary("GroupMembers", ChatServiceServer.GroupMembers),
		unary("AddGroupMembers", ChatServiceServer.AddGroupMembers),
		unary("GroupIconUploadURL", ChatServiceServer.GroupIconUploadURL),
		unary("GroupIconURL", ChatServiceServer.GroupIconURL),
		unary("CreateMessage", ChatServiceServer.CreateMessage),
		unary("Messages", ChatServiceServer.Messages),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "groupchat/v1/chat.json",
}

// Invoke calls method on the chat service with the JSON codec.
func Invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
