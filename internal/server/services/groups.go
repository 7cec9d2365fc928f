package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/icons"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/groups"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/repomanager"
)

const maxGroupNameLength = 100

func validateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxGroupNameLength {
		return "", fmt.Errorf("%w: group name must be 1-%d characters", common.ErrInvalidArgument, maxGroupNameLength)
	}
	return name, nil
}

// invitees drops duplicates and the caller from userIDs and requires each
// remaining user to be a friend of the caller.
func invitees(ctx context.Context, r repomanager.Repositories, callerID int64, userIDs []int64) ([]int64, error) {
	ids := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if id == callerID || slices.Contains(ids, id) {
			continue
		}
		ok, err := r.Friends.IsFriend(ctx, callerID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: user %d is not a friend", common.ErrorUnauthorized, id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateGroup creates a group holding the caller and the invited friends,
// and announces it to the invitees.
func (s *Service) CreateGroup(ctx context.Context, name string, userIDs []int64) (*models.Group, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	if name, err = validateGroupName(name); err != nil {
		return nil, err
	}

	var (
		group   *models.Group
		members []int64
	)
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		ids, err := invitees(ctx, r, me.ID, userIDs)
		if err != nil {
			return err
		}
		if group, err = r.Groups.Create(ctx, &models.Group{Name: name}); err != nil {
			return err
		}
		members = append([]int64{me.ID}, ids...)
		return r.Groups.AddMembers(ctx, group.ID, members)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.GroupAdded{Group: group, CreatorID: me.ID, MemberIDs: members})
	s.logger.Info(ctx, "group created", "group_id", group.ID, "user_id", me.ID, "members", len(members))
	return group, nil
}

// UpdateGroup renames the group or sets its icon. The icon must be a key
// handed out by GroupIconUploadURL for this group, or empty to clear it.
func (s *Service) UpdateGroup(ctx context.Context, groupID int64, name, icon *string) (*models.Group, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	var upd groups.Update
	if name != nil {
		n, err := validateGroupName(*name)
		if err != nil {
			return nil, err
		}
		upd.Name = &n
	}
	if icon != nil {
		if *icon != "" && !icons.OwnsKey(groupID, *icon) {
			return nil, fmt.Errorf("%w: icon key does not belong to group %d", common.ErrInvalidArgument, groupID)
		}
		upd.Icon = icon
	}

	var group *models.Group
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := memberGroup(ctx, r, groupID, me.ID); err != nil {
			return err
		}
		group, err = r.Groups.Update(ctx, groupID, upd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes the group with its memberships and history.
func (s *Service) DeleteGroup(ctx context.Context, groupID int64) error {
	me, err := s.principal(ctx)
	if err != nil {
		return err
	}
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := lockedMemberGroup(ctx, r, groupID, me.ID); err != nil {
			return err
		}
		return r.Groups.Delete(ctx, groupID)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "group deleted", "group_id", groupID, "user_id", me.ID)
	return nil
}

// LeaveGroup drops the caller's membership. The last member to leave
// destroys the group.
func (s *Service) LeaveGroup(ctx context.Context, groupID int64) error {
	me, err := s.principal(ctx)
	if err != nil {
		return err
	}

	destroyed := false
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := lockedMemberGroup(ctx, r, groupID, me.ID); err != nil {
			return err
		}
		if err := r.Groups.RemoveMember(ctx, groupID, me.ID); err != nil {
			return err
		}
		n, err := r.Groups.CountMembers(ctx, groupID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		destroyed = true
		return r.Groups.Delete(ctx, groupID)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "group left", "group_id", groupID, "user_id", me.ID, "destroyed", destroyed)
	return nil
}

func (s *Service) Group(ctx context.Context, groupID int64) (*models.Group, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	return memberGroup(ctx, s.repomanager.Repos(), groupID, me.ID)
}

// GroupMembers lists the members of the group. Only the caller's own entry
// carries an email.
func (s *Service) GroupMembers(ctx context.Context, groupID int64) ([]*models.User, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	r := s.repomanager.Repos()
	if _, err := memberGroup(ctx, r, groupID, me.ID); err != nil {
		return nil, err
	}
	members, err := r.Groups.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for i, m := range members {
		if m.ID == me.ID {
			members[i] = privateUser(m)
		} else {
			members[i] = publicUser(m)
		}
	}
	return members, nil
}

// AddGroupMembers invites friends of the caller into the group. Users that
// already belong to it are skipped; the rest receive a group-added event.
func (s *Service) AddGroupMembers(ctx context.Context, groupID int64, userIDs []int64) (*models.Group, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	var (
		group *models.Group
		added []int64
	)
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		g, err := lockedMemberGroup(ctx, r, groupID, me.ID)
		if err != nil {
			return err
		}
		group = g

		ids, err := invitees(ctx, r, me.ID, userIDs)
		if err != nil {
			return err
		}
		current, err := r.Groups.MemberIDs(ctx, groupID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if !slices.Contains(current, id) {
				added = append(added, id)
			}
		}
		if len(added) == 0 {
			return nil
		}
		return r.Groups.AddMembers(ctx, groupID, added)
	})
	if err != nil {
		return nil, err
	}

	if len(added) > 0 {
		s.bus.Publish(ctx, events.GroupAdded{Group: group, CreatorID: me.ID, MemberIDs: added})
	}
	return group, nil
}

// GroupIconUploadURL presigns an upload for a new icon of the group.
func (s *Service) GroupIconUploadURL(ctx context.Context, groupID int64) (*IconUpload, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := memberGroup(ctx, s.repomanager.Repos(), groupID, me.ID); err != nil {
		return nil, err
	}
	if s.icons == nil {
		return nil, fmt.Errorf("%w: icon storage is not configured", common.ErrorInternal)
	}
	key, url, err := s.icons.UploadURL(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &IconUpload{Key: key, URL: url}, nil
}

// GroupIconURL presigns a download of the group's current icon.
func (s *Service) GroupIconURL(ctx context.Context, groupID int64) (string, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return "", err
	}
	group, err := memberGroup(ctx, s.repomanager.Repos(), groupID, me.ID)
	if err != nil {
		return "", err
	}
	if group.Icon == "" {
		return "", fmt.Errorf("%w: group %d has no icon", common.ErrorNotFound, groupID)
	}
	if s.icons == nil {
		return "", fmt.Errorf("%w: icon storage is not configured", common.ErrorInternal)
	}
	return s.icons.DownloadURL(ctx, group.Icon)
}
