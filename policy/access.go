// Package policy holds the neighborhood and ownership rules applied to every resource lookup.
//
// Controllers resolve "not found" first and only then ask the policy, so a denial always
// means the resource exists but the principal may not touch it.
package policy

import "fmt"

// Action is the kind of access requested on a resource.
type Action int

const (
	// Read covers viewing a resource and interacting with it (commenting on a post).
	Read Action = iota
	// Modify covers update, delete and owner-only reads such as edit forms.
	Modify
)

// Principal is the authenticated caller as carried by the access token.
type Principal struct {
	UserID         uint
	NeighborhoodID uint
}

// Resource describes the scoping attributes of a stored row.
type Resource struct {
	Kind           string
	OwnerID        uint
	NeighborhoodID uint
}

// Decision is the outcome of a policy check. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// CanAccess decides whether p may perform a on r.
// Reads are limited to the principal's neighborhood; modifications to the owner.
func CanAccess(p Principal, r Resource, a Action) Decision {
	kind := r.Kind
	if kind == "" {
		kind = "resource"
	}
	switch a {
	case Read:
		if p.NeighborhoodID == 0 || p.NeighborhoodID != r.NeighborhoodID {
			return deny("this %s belongs to another neighborhood", kind)
		}
		return allow
	case Modify:
		if p.UserID == 0 || p.UserID != r.OwnerID {
			return deny("you don't have permission to modify this %s", kind)
		}
		return allow
	default:
		return deny("unsupported action")
	}
}

// CanMessage decides whether sender may start or continue a conversation with receiver.
func CanMessage(sender, receiver Principal) Decision {
	if sender.UserID == receiver.UserID {
		return deny("you cannot message yourself")
	}
	if sender.NeighborhoodID == 0 || sender.NeighborhoodID != receiver.NeighborhoodID {
		return deny("User is not in your neighborhood")
	}
	return allow
}

// IsParticipant decides whether p is one of the two users of a conversation.
func IsParticipant(p Principal, user1ID, user2ID uint) Decision {
	if p.UserID != 0 && (p.UserID == user1ID || p.UserID == user2ID) {
		return allow
	}
	return deny("Access denied to this conversation")
}
