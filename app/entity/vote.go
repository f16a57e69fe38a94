package entity

import (
	"fmt"
	"strconv"
)

// TargetKind tags what a vote or ownership check points at.
type TargetKind int

const (
	TargetPost TargetKind = iota + 1
	TargetComment
)

func (k TargetKind) String() string {
	switch k {
	case TargetPost:
		return "post"
	case TargetComment:
		return "comment"
	default:
		return "unknown"
	}
}

func ParseTargetKind(s string) (TargetKind, error) {
	switch s {
	case "post", "posts":
		return TargetPost, nil
	case "comment", "comments":
		return TargetComment, nil
	default:
		return 0, fmt.Errorf("unknown target kind %q", s)
	}
}

type Target struct {
	Kind TargetKind
	ID   uint64
}

func (t Target) String() string {
	return t.Kind.String() + ":" + strconv.FormatUint(t.ID, 10)
}

type VoteDirection int

const (
	VoteNone VoteDirection = iota
	VoteUp
	VoteDown
)

// String renders the direction in the wire format used by the vote
// endpoints: "true" for up, "false" for down, "null" for none.
func (d VoteDirection) String() string {
	switch d {
	case VoteUp:
		return "true"
	case VoteDown:
		return "false"
	default:
		return "null"
	}
}

func ParseVoteDirection(s string) (VoteDirection, error) {
	switch s {
	case "true", "up":
		return VoteUp, nil
	case "false", "down":
		return VoteDown, nil
	case "null", "none":
		return VoteNone, nil
	default:
		return VoteNone, fmt.Errorf("unknown vote type %q", s)
	}
}

type Vote struct {
	ID        uint64
	UserID    uint64
	Target    Target
	Direction VoteDirection
}
