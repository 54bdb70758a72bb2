package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	setup(t)

	valid := func() map[string]string {
		return map[string]string{
			"full_name":   "Ann Lee",
			"email":       "ann@example.com",
			"password":    "secret123",
			"postal_code": chelsea,
		}
	}

	body := valid()
	body["postal_code"] = "00000"
	res := doJSON(t, http.MethodPost, "/api/users/register", "", body)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid postal code", res.Body.Message)

	body = valid()
	body["email"] = "not-an-email"
	res = doJSON(t, http.MethodPost, "/api/users/register", "", body)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid Email", res.Body.Message)

	body = valid()
	body["password"] = "123"
	res = doJSON(t, http.MethodPost, "/api/users/register", "", body)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	body = valid()
	delete(body, "full_name")
	res = doJSON(t, http.MethodPost, "/api/users/register", "", body)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = doJSON(t, http.MethodPost, "/api/users/register", "", valid())
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))
	assert.NotContains(t, string(res.Raw), "password")
	var created struct {
		Email        string `json:"email"`
		Neighborhood struct {
			PostalCode string `json:"postal_code"`
			Name       string `json:"name"`
		} `json:"neighborhood"`
	}
	res.decode(t, &created)
	assert.Equal(t, "ann@example.com", created.Email)
	assert.Equal(t, chelsea, created.Neighborhood.PostalCode)
	assert.Equal(t, "Chelsea", created.Neighborhood.Name)

	body = valid()
	body["email"] = "ANN@Example.com"
	res = doJSON(t, http.MethodPost, "/api/users/register", "", body)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Email already registered", res.Body.Message)
}

func TestRegisterWithAvatar(t *testing.T) {
	setup(t)

	res := doMultipart(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"full_name":   "Pic Person",
		"email":       "pic@example.com",
		"password":    "secret123",
		"postal_code": mission,
	}, "avatar", pngBytes)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))

	var created struct {
		ProfilePic *string `json:"profile_pic"`
	}
	res.decode(t, &created)
	require.NotNil(t, created.ProfilePic)
	assert.Contains(t, *created.ProfilePic, "/uploads/profile_pictures/")
	assert.Equal(t, 1, blobCount(t, "profile_pictures/"))
}

func TestLogin(t *testing.T) {
	setup(t)
	signUp(t, "bob", chelsea)

	res := doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "bob@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid Email or Password", res.Body.Message)

	res = doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "nobody@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid Email or Password", res.Body.Message)

	res = doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": " BOB@example.com ", "password": "secret123"})
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestLogoutRevokesToken(t *testing.T) {
	setup(t)
	bob := signUp(t, "bob", chelsea)

	res := doJSON(t, http.MethodGet, "/api/users/profile", bob.Token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, http.MethodPost, "/api/users/logout", bob.Token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, http.MethodGet, "/api/users/profile", bob.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = doJSON(t, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "No token provided", res.Body.Message)
}

func TestUpdateProfileMovesNeighborhood(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)
	signUp(t, "carl", mission)

	update := map[string]string{
		"full_name":   "Ann Moved",
		"email":       ann.Email,
		"phone":       "555-0100",
		"postal_code": mission,
		"password":    "wrong-pass",
	}
	res := doJSON(t, http.MethodPut, "/api/users/profile", ann.Token, update)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid Password", res.Body.Message)

	update["password"] = "secret123"
	update["email"] = "carl@example.com"
	res = doJSON(t, http.MethodPut, "/api/users/profile", ann.Token, update)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Email already registered", res.Body.Message)

	update["email"] = ann.Email
	update["postal_code"] = "99999"
	res = doJSON(t, http.MethodPut, "/api/users/profile", ann.Token, update)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid postal code", res.Body.Message)

	update["postal_code"] = mission
	res = doJSON(t, http.MethodPut, "/api/users/profile", ann.Token, update)
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	var out struct {
		Token string `json:"token"`
		User  struct {
			FullName     string `json:"full_name"`
			Neighborhood struct {
				PostalCode string `json:"postal_code"`
			} `json:"neighborhood"`
		} `json:"user"`
	}
	res.decode(t, &out)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, "Ann Moved", out.User.FullName)
	assert.Equal(t, mission, out.User.Neighborhood.PostalCode)

	res = doJSON(t, http.MethodGet, "/api/users/profile", ann.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status, "the pre-move token is revoked")

	res = doJSON(t, http.MethodGet, "/api/users/neighbors", out.Token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var neighbors []struct {
		FullName string `json:"full_name"`
	}
	res.decode(t, &neighbors)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "carl", neighbors[0].FullName)
}

func TestNeighborsEmptyList(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)

	res := doJSON(t, http.MethodGet, "/api/users/neighbors", ann.Token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `[]`, string(res.Body.Data))
}

func TestChangePassword(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)

	res := doJSON(t, http.MethodPut, "/api/users/password", ann.Token, map[string]string{"password": "nope-nope", "new_password": "another1"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = doJSON(t, http.MethodPut, "/api/users/password", ann.Token, map[string]string{"password": "secret123", "new_password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "New password cannot be the same as the old password", res.Body.Message)

	res = doJSON(t, http.MethodPut, "/api/users/password", ann.Token, map[string]string{"password": "secret123", "new_password": "another1"})
	require.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": ann.Email, "password": "another1"})
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestProfilePhotoReplaceAndRemove(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)

	res := doMultipart(t, http.MethodPut, "/api/users/profilePhoto", ann.Token, nil, "profile_pic", pngBytes)
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	assert.Equal(t, 1, blobCount(t, "profile_pictures/"))

	res = doMultipart(t, http.MethodPut, "/api/users/profilePhoto", ann.Token, nil, "profile_pic", pngBytes)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 1, blobCount(t, "profile_pictures/"), "old picture is deleted")

	res = doMultipart(t, http.MethodPut, "/api/users/profilePhoto", ann.Token, nil, "profile_pic", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = doMultipart(t, http.MethodPut, "/api/users/profilePhoto", ann.Token, nil, "profile_pic")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 0, blobCount(t, "profile_pictures/"))

	res = doJSON(t, http.MethodGet, "/api/users/profile", ann.Token, nil)
	var profile struct {
		ProfilePic *string `json:"profile_pic"`
	}
	res.decode(t, &profile)
	assert.Nil(t, profile.ProfilePic)
}

func TestDeleteAccount(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)

	res := doMultipart(t, http.MethodPost, "/api/post", ann.Token, map[string]string{
		"title": "Garage sale", "content": "Saturday morning", "category": "news",
	}, "images", pngBytes)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))
	require.Equal(t, 1, blobCount(t, "posts/"))

	res = doJSON(t, http.MethodDelete, "/api/users/user", ann.Token, map[string]string{"password": "bad-password"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = doJSON(t, http.MethodDelete, "/api/users/user", ann.Token, map[string]string{"password": "secret123"})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 0, blobCount(t, "posts/"))

	var posts int64
	require.NoError(t, testDB.Table("posts").Count(&posts).Error)
	assert.Zero(t, posts)

	res = doJSON(t, http.MethodGet, "/api/users/profile", ann.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": ann.Email, "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

// secondSession logs the account in again, as from another device.
func secondSession(t *testing.T, a account) string {
	t.Helper()
	res := doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": a.Email, "password": "secret123"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	var login struct {
		Token string `json:"token"`
	}
	res.decode(t, &login)
	require.NotEqual(t, a.Token, login.Token)
	return login.Token
}

func TestOtherSessionsRejectedAfterMove(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)
	phone := secondSession(t, ann)

	res := doJSON(t, http.MethodPut, "/api/users/profile", ann.Token, map[string]string{
		"full_name":   "ann",
		"email":       ann.Email,
		"postal_code": mission,
		"password":    "secret123",
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))

	res = doJSON(t, http.MethodGet, "/api/users/profile", phone, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, 40106, res.Body.Code)

	res = doMultipart(t, http.MethodPost, "/api/post", phone, map[string]string{
		"title": "Lost cat", "content": "Grey tabby", "category": "lost_and_found",
	}, "images")
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	var posts int64
	require.NoError(t, testDB.Table("posts").Count(&posts).Error)
	assert.Zero(t, posts, "nothing is written into the old neighborhood")
}

func TestDeletedAccountSessionsRejected(t *testing.T) {
	setup(t)
	ann := signUp(t, "ann", chelsea)
	bob := signUp(t, "bob", chelsea)
	phone := secondSession(t, ann)

	res := doJSON(t, http.MethodDelete, "/api/users/user", ann.Token, map[string]string{"password": "secret123"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))

	res = doMultipart(t, http.MethodPost, "/api/post", phone, map[string]string{
		"title": "Garage sale", "content": "Saturday morning", "category": "news",
	}, "images")
	assert.Equal(t, http.StatusUnauthorized, res.Status, string(res.Raw))
	assert.Equal(t, 40105, res.Body.Code)

	res = doJSON(t, http.MethodPost, "/api/chat/send", phone, map[string]interface{}{
		"receiver_id": bob.ID, "message_text": "hello",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = doJSON(t, http.MethodGet, "/api/users/profile", bob.Token, nil)
	assert.Equal(t, http.StatusOK, res.Status)
}
