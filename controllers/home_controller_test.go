package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeDashboard(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)
	ben := signUp(t, "ben", chelsea)
	mia := signUp(t, "mia", mission)

	createPost(t, ben, "Farmers market", "news")
	createPost(t, mia, "Not in Chelsea", "news")
	createEvent(t, ben, "Movie night", 2)
	createEvent(t, ben, "Winter fair", 60)
	require.Equal(t, http.StatusCreated, send(t, ben, ann.ID, "welcome!").Status)

	res := doJSON(t, http.MethodGet, "/api/users", ann.Token, nil)
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))

	var home struct {
		Neighborhood struct {
			Name       string `json:"name"`
			PostalCode string `json:"postal_code"`
		} `json:"neighborhood"`
		NeighborsCount      int64       `json:"neighbors_count"`
		PostsThisMonth      int64       `json:"posts_this_month"`
		UpcomingEventsCount int64       `json:"upcoming_events_count"`
		ConversationsCount  int64       `json:"conversations_count"`
		UnreadMessages      int64       `json:"unread_messages_count"`
		RecentPosts         []postBody  `json:"recent_posts"`
		UpcomingEvents      []eventBody `json:"upcoming_events"`
	}
	res.decode(t, &home)

	assert.Equal(t, "Chelsea", home.Neighborhood.Name)
	assert.Equal(t, chelsea, home.Neighborhood.PostalCode)
	assert.EqualValues(t, 1, home.NeighborsCount)
	assert.EqualValues(t, 1, home.PostsThisMonth)
	assert.EqualValues(t, 1, home.UpcomingEventsCount, "only the next seven days count")
	assert.EqualValues(t, 1, home.ConversationsCount)
	assert.EqualValues(t, 1, home.UnreadMessages)
	require.Len(t, home.RecentPosts, 1)
	assert.Equal(t, "Farmers market", home.RecentPosts[0].Title)
	assert.Len(t, home.UpcomingEvents, 2)

	res = doJSON(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestListNeighborhoods(t *testing.T) {
	setup(t)

	res := doJSON(t, http.MethodGet, "/api/neighborhoods/getAllNeighborhoods", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	var list []struct {
		PostalCode string `json:"postal_code"`
		Name       string `json:"name"`
	}
	res.decode(t, &list)
	require.NotEmpty(t, list)

	codes := map[string]string{}
	for _, n := range list {
		codes[n.PostalCode] = n.Name
	}
	assert.Equal(t, "Chelsea", codes[chelsea])
	assert.Equal(t, "Mission District", codes[mission])
}

func TestUnknownRoute(t *testing.T) {
	setup(t)
	res := doJSON(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, 40400, res.Body.Code)
}
