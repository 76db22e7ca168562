// Package domain contains core concepts of the chat system.
// This file defines Chat conversations and their membership rules.
package domain

import (
	"sort"

	"github.com/samber/lo"
)

// ChatID identifies a conversation. It never changes once assigned.
type ChatID string

func (c ChatID) String() string { return string(c) }

// Members is a set of user identities.
type Members map[UserID]struct{}

// Chat is a named, membership-bounded message thread.
// IsGroup is computed at creation and is not recomputed on join.
type Chat struct {
	ID           ChatID
	Name         string
	IsGroup      bool
	Participants Members
}

// NewChat builds a conversation from the requested participants.
// The creator always ends up in the member set. IsGroup counts the requested
// list as given, duplicates included.
func NewChat(id ChatID, name string, creator UserID, participants []UserID) Chat {
	requested := lo.Uniq(participants)
	members := make(Members, len(requested)+1)
	for _, p := range requested {
		members[p] = struct{}{}
	}
	members[creator] = struct{}{}
	return Chat{
		ID:           id,
		Name:         name,
		IsGroup:      len(participants) > 2,
		Participants: members,
	}
}

func (c Chat) HasMember(id UserID) bool {
	_, ok := c.Participants[id]
	return ok
}

// WithMember returns a copy of the chat including id.
// The second value is false when id was already a member.
func (c Chat) WithMember(id UserID) (Chat, bool) {
	if c.HasMember(id) {
		return c, false
	}
	members := make(Members, len(c.Participants)+1)
	for m := range c.Participants {
		members[m] = struct{}{}
	}
	members[id] = struct{}{}
	c.Participants = members
	return c, true
}

// MemberList returns members sorted for stable output.
func (c Chat) MemberList() []UserID {
	list := lo.Keys(c.Participants)
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}
