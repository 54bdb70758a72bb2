package controllers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventBody struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"event_date"`
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(time.RFC3339)
}

func createEvent(t *testing.T, a account, title string, days int) eventBody {
	t.Helper()
	res := doJSON(t, http.MethodPost, "/api/events", a.Token, map[string]string{
		"title":       title,
		"description": title + " for everyone",
		"event_date":  futureDate(days),
		"location":    "Community garden",
	})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))
	var e eventBody
	res.decode(t, &e)
	return e
}

func TestCreateEventValidation(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)

	valid := func() map[string]string {
		return map[string]string{
			"title":       "Picnic",
			"description": "Bring a blanket",
			"event_date":  futureDate(3),
			"location":    "Park",
		}
	}

	body := valid()
	body["event_date"] = "next tuesday"
	res := doJSON(t, http.MethodPost, "/api/events", ann.Token, body)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid event date", res.Body.Message)

	body = valid()
	body["event_date"] = time.Now().UTC().AddDate(0, 0, -1).Format(time.RFC3339)
	res = doJSON(t, http.MethodPost, "/api/events", ann.Token, body)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Event date must be in the future", res.Body.Message)

	body = valid()
	body["title"] = strings.Repeat("t", 101)
	res = doJSON(t, http.MethodPost, "/api/events", ann.Token, body)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	body = valid()
	body["description"] = strings.Repeat("d", 251)
	res = doJSON(t, http.MethodPost, "/api/events", ann.Token, body)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	body = valid()
	delete(body, "location")
	res = doJSON(t, http.MethodPost, "/api/events", ann.Token, body)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	body = valid()
	body["event_date"] = time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	res = doJSON(t, http.MethodPost, "/api/events", ann.Token, body)
	assert.Equal(t, http.StatusCreated, res.Status, "date-only values are accepted")
}

func TestCreateEventCaseInsensitiveKeys(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)

	res := doJSON(t, http.MethodPost, "/api/events", ann.Token, map[string]string{
		"Title":       "Cleanup day",
		"Description": "Gloves provided",
		"EVENT_DATE":  futureDate(5),
		"Location":    "Pier 62",
	})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))
	var e eventBody
	res.decode(t, &e)
	assert.Equal(t, "Cleanup day", e.Title)
	assert.Equal(t, "Pier 62", e.Location)
}

func TestEventAccess(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)
	ben := signUp(t, "ben", chelsea)
	mia := signUp(t, "mia", mission)
	e := createEvent(t, ann, "Book swap", 2)
	path := fmt.Sprintf("/api/events/%d", e.ID)

	res := doJSON(t, http.MethodGet, path, ben.Token, nil)
	assert.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, http.MethodGet, path, mia.Token, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "this event belongs to another neighborhood", res.Body.Message)

	res = doJSON(t, http.MethodGet, fmt.Sprintf("/api/events/editEvent/%d", e.ID), ben.Token, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	update := map[string]string{
		"title":       "Book swap and coffee",
		"description": "Bring two books",
		"event_date":  futureDate(4),
		"location":    "Library steps",
	}
	res = doJSON(t, http.MethodPut, path, ben.Token, update)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = doJSON(t, http.MethodPut, path, ann.Token, update)
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	var updated eventBody
	res.decode(t, &updated)
	assert.Equal(t, "Library steps", updated.Location)

	res = doJSON(t, http.MethodDelete, path, ben.Token, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
	res = doJSON(t, http.MethodDelete, path, ann.Token, nil)
	assert.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, http.MethodGet, path, ann.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Event not found", res.Body.Message)
}

func TestListAndSearchEvents(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)
	ben := signUp(t, "ben", chelsea)
	mia := signUp(t, "mia", mission)

	createEvent(t, ann, "Chess night", 10)
	createEvent(t, ben, "Yoga class", 1)
	createEvent(t, mia, "Chess tournament", 3)

	list := func(path, token string) []eventBody {
		t.Helper()
		res := doJSON(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
		var out []eventBody
		res.decode(t, &out)
		return out
	}

	all := list("/api/events/allEvents", ann.Token)
	require.Len(t, all, 2)
	assert.Equal(t, "Yoga class", all[0].Title, "soonest first")

	assert.Len(t, list("/api/events/myAllEvents", ann.Token), 1)

	found := list("/api/events/search?q=chess", ann.Token)
	require.Len(t, found, 1)
	assert.Equal(t, "Chess night", found[0].Title)

	assert.Empty(t, list("/api/events/searchMyEvents?q=yoga", ann.Token))
	assert.Len(t, list("/api/events/searchMyEvents?q=yoga", ben.Token), 1)

	res := doJSON(t, http.MethodGet, "/api/events/search?q=", ann.Token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Missing search query", res.Body.Message)
}
