package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAccessRead(t *testing.T) {
	post := Resource{Kind: "post", OwnerID: 7, NeighborhoodID: 3}

	tests := []struct {
		name    string
		p       Principal
		allowed bool
	}{
		{"owner in same neighborhood", Principal{UserID: 7, NeighborhoodID: 3}, true},
		{"neighbor", Principal{UserID: 9, NeighborhoodID: 3}, true},
		{"outsider", Principal{UserID: 9, NeighborhoodID: 4}, false},
		{"owner who moved away", Principal{UserID: 7, NeighborhoodID: 4}, false},
		{"zero principal", Principal{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanAccess(tt.p, post, Read)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, "this post belongs to another neighborhood", d.Reason)
			} else {
				assert.Empty(t, d.Reason)
			}
		})
	}
}

func TestCanAccessModify(t *testing.T) {
	event := Resource{Kind: "event", OwnerID: 7, NeighborhoodID: 3}

	assert.True(t, CanAccess(Principal{UserID: 7, NeighborhoodID: 3}, event, Modify).Allowed)
	assert.True(t, CanAccess(Principal{UserID: 7, NeighborhoodID: 5}, event, Modify).Allowed, "ownership is enough to modify")

	d := CanAccess(Principal{UserID: 8, NeighborhoodID: 3}, event, Modify)
	assert.False(t, d.Allowed)
	assert.Equal(t, "you don't have permission to modify this event", d.Reason)

	assert.False(t, CanAccess(Principal{}, Resource{}, Modify).Allowed)
}

func TestCanAccessUnknownAction(t *testing.T) {
	d := CanAccess(Principal{UserID: 1, NeighborhoodID: 1}, Resource{OwnerID: 1, NeighborhoodID: 1}, Action(42))
	assert.False(t, d.Allowed)
}

func TestCanMessage(t *testing.T) {
	alice := Principal{UserID: 1, NeighborhoodID: 10}
	bob := Principal{UserID: 2, NeighborhoodID: 10}
	carol := Principal{UserID: 3, NeighborhoodID: 11}

	assert.True(t, CanMessage(alice, bob).Allowed)
	assert.True(t, CanMessage(bob, alice).Allowed)

	d := CanMessage(alice, carol)
	assert.False(t, d.Allowed)
	assert.Equal(t, "User is not in your neighborhood", d.Reason)

	d = CanMessage(alice, alice)
	assert.False(t, d.Allowed)
	assert.Equal(t, "you cannot message yourself", d.Reason)
}

func TestIsParticipant(t *testing.T) {
	assert.True(t, IsParticipant(Principal{UserID: 4}, 4, 9).Allowed)
	assert.True(t, IsParticipant(Principal{UserID: 9}, 4, 9).Allowed)

	d := IsParticipant(Principal{UserID: 5}, 4, 9)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Access denied to this conversation", d.Reason)

	assert.False(t, IsParticipant(Principal{}, 0, 9).Allowed)
}
