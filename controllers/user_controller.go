package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/config"
	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/storage"
	"github.com/hoodlink/server/utils"
)

// UserController handles registration, sessions and the caller's own account.
type UserController struct {
	db    *gorm.DB
	store storage.Storage
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB, store storage.Storage) *UserController {
	return &UserController{db: db, store: store}
}

type profileView struct {
	ID           uint                `json:"id"`
	FullName     string              `json:"full_name"`
	Email        string              `json:"email"`
	Phone        *string             `json:"phone"`
	ProfilePic   *string             `json:"profile_pic"`
	Neighborhood models.Neighborhood `json:"neighborhood"`
	CreatedAt    time.Time           `json:"created_at"`
}

func toProfileView(u models.User) profileView {
	return profileView{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		Phone:        u.Phone,
		ProfilePic:   u.ProfilePic,
		Neighborhood: u.Neighborhood,
		CreatedAt:    u.CreatedAt,
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (u *UserController) findNeighborhood(postalCode string) (*models.Neighborhood, error) {
	var n models.Neighborhood
	if err := u.db.Where("postal_code = ?", strings.TrimSpace(postalCode)).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// bindForm binds JSON bodies and multipart forms into the same request struct.
func bindForm(ctx *gin.Context, out interface{}) error {
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return ctx.ShouldBind(out)
	}
	return ctx.ShouldBindJSON(out)
}

// Register creates a resident account in the neighborhood of the given postal code.
func (u *UserController) Register(ctx *gin.Context) {
	type request struct {
		FullName      string `json:"full_name" form:"full_name"`
		Email         string `json:"email" form:"email"`
		Password      string `json:"password" form:"password"`
		Phone         string `json:"phone" form:"phone"`
		PostalCode    string `json:"postal_code" form:"postal_code"`
		CaptchaID     string `json:"captcha_id" form:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer" form:"captcha_answer"`
	}

	var req request
	if err := bindForm(ctx, &req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "Invalid request payload")
		return
	}

	cfg := config.Get()
	if cfg.RegisterCaptchaEnabled && !utils.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "Invalid captcha")
		return
	}

	ip := ctx.ClientIP()
	if utils.RegistrationIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42920, "Too many failed registrations, try again later")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "Too many requests, please try again later")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42921, "Daily registration limit reached")
		return
	}

	fail := func(status, code int, message string) {
		utils.RegistrationFailRecord(ip)
		utils.Error(ctx, status, code, message)
	}

	fullName := utils.StripTags(req.FullName)
	if fullName == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.PostalCode) == "" {
		fail(http.StatusBadRequest, 40003, "Full name, email, password and postal code are required")
		return
	}
	if !utils.WithinLength(fullName, 100) {
		fail(http.StatusBadRequest, 40004, "Full name must be at most 100 characters")
		return
	}
	if !utils.IsValidEmail(req.Email) {
		fail(http.StatusBadRequest, 40005, "Invalid Email")
		return
	}
	if !utils.IsValidPassword(req.Password) {
		fail(http.StatusBadRequest, 40006, "Password must be between 6 and 72 characters")
		return
	}

	neighborhood, err := u.findNeighborhood(req.PostalCode)
	if err != nil {
		if isNotFound(err) {
			fail(http.StatusBadRequest, 40007, "Invalid postal code")
			return
		}
		serverError(ctx, 50001, "Failed to register user", err)
		return
	}

	email := utils.NormalizeEmail(req.Email)
	var taken int64
	if err := u.db.Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		serverError(ctx, 50001, "Failed to register user", err)
		return
	}
	if taken > 0 {
		fail(http.StatusBadRequest, 40008, "Email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		serverError(ctx, 50002, "Failed to hash password", err)
		return
	}

	user := models.User{
		FullName:       fullName,
		Email:          email,
		PasswordHash:   hash,
		Phone:          optionalString(req.Phone),
		NeighborhoodID: neighborhood.ID,
	}

	if avatar, err := ctx.FormFile("avatar"); err == nil {
		key, url, err := storage.SaveImage(u.store, storage.ProfilePicturesPrefix, avatar)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidImage) {
				fail(http.StatusBadRequest, 40009, err.Error())
				return
			}
			serverError(ctx, 50003, "Failed to store profile picture", err)
			return
		}
		user.ProfilePic, user.ProfilePicKey = &url, &key
	}

	if err := u.db.Create(&user).Error; err != nil {
		if user.ProfilePicKey != nil {
			removeBlobs(u.store, *user.ProfilePicKey)
		}
		if isUniqueViolation(err) {
			fail(http.StatusBadRequest, 40008, "Email already registered")
			return
		}
		utils.RegistrationFailRecord(ip)
		serverError(ctx, 50001, "Failed to register user", err, "email", email)
		return
	}

	utils.RegistrationDailyIncrement(ip)
	user.Neighborhood = *neighborhood
	utils.Created(ctx, "User registered successfully", toProfileView(user))
}

// Login verifies credentials and issues an access token.
func (u *UserController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "Invalid request payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "Email and password are required")
		return
	}

	var user models.User
	if err := u.db.Preload("Neighborhood").Where("email = ?", utils.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		if !isNotFound(err) {
			serverError(ctx, 50004, "Failed to log in", err)
			return
		}
		utils.BurnPasswordCheck(req.Password)
		utils.Error(ctx, http.StatusUnauthorized, 40111, "Invalid Email or Password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "Invalid Email or Password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.NeighborhoodID, 0)
	if err != nil {
		serverError(ctx, 50005, "Failed to generate token", err)
		return
	}

	utils.Respond(ctx, http.StatusOK, 0, "Login successful", gin.H{
		"token": token,
		"user":  toProfileView(user),
	})
}

// Logout revokes the presented token.
func (u *UserController) Logout(ctx *gin.Context) {
	token, claims := middleware.CurrentToken(ctx)
	utils.RevokeToken(token, claims)
	utils.Message(ctx, "Logged out successfully")
}

// Captcha issues a digit captcha for the registration form.
func (u *UserController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		serverError(ctx, 50006, "Failed to generate captcha", err)
		return
	}
	utils.Success(ctx, gin.H{
		"captcha_id":    id,
		"captcha_image": b64,
		"enabled":       config.Get().RegisterCaptchaEnabled,
	})
}

// loadSelf fetches the caller's row. It writes the error response itself.
func (u *UserController) loadSelf(ctx *gin.Context, withNeighborhood bool) (*models.User, bool) {
	q := u.db
	if withNeighborhood {
		q = q.Preload("Neighborhood")
	}
	var user models.User
	if err := q.First(&user, middleware.CurrentPrincipal(ctx).UserID).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40411, "User not found")
			return nil, false
		}
		serverError(ctx, 50007, "Failed to load user", err)
		return nil, false
	}
	return &user, true
}

// Profile returns the caller's account.
func (u *UserController) Profile(ctx *gin.Context) {
	user, ok := u.loadSelf(ctx, true)
	if !ok {
		return
	}
	utils.Success(ctx, toProfileView(*user))
}

// UpdateProfile replaces the caller's profile fields. The current password is required.
func (u *UserController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		FullName   string `json:"full_name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		PostalCode string `json:"postal_code"`
		Password   string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "Invalid request payload")
		return
	}

	fullName := utils.StripTags(req.FullName)
	if fullName == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.PostalCode) == "" || req.Password == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "Full name, email, postal code and password are required")
		return
	}
	if !utils.WithinLength(fullName, 100) {
		utils.Error(ctx, http.StatusBadRequest, 40004, "Full name must be at most 100 characters")
		return
	}

	user, ok := u.loadSelf(ctx, false)
	if !ok {
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "Invalid Password")
		return
	}
	if !utils.IsValidEmail(req.Email) {
		utils.Error(ctx, http.StatusBadRequest, 40005, "Invalid Email")
		return
	}
	neighborhood, err := u.findNeighborhood(req.PostalCode)
	if err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusBadRequest, 40007, "Invalid postal code")
			return
		}
		serverError(ctx, 50008, "Failed to update profile", err)
		return
	}

	email := utils.NormalizeEmail(req.Email)
	var taken int64
	if err := u.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken).Error; err != nil {
		serverError(ctx, 50008, "Failed to update profile", err)
		return
	}
	if taken > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40008, "Email already registered")
		return
	}

	moved := neighborhood.ID != user.NeighborhoodID
	err = u.db.Model(user).Updates(map[string]interface{}{
		"full_name":       fullName,
		"email":           email,
		"phone":           optionalString(req.Phone),
		"neighborhood_id": neighborhood.ID,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			utils.Error(ctx, http.StatusBadRequest, 40008, "Email already registered")
			return
		}
		serverError(ctx, 50008, "Failed to update profile", err, "user_id", user.ID)
		return
	}
	user.FullName, user.Email, user.Phone = fullName, email, optionalString(req.Phone)
	user.NeighborhoodID, user.Neighborhood = neighborhood.ID, *neighborhood

	payload := gin.H{"user": toProfileView(*user)}
	if moved || email != ctx.GetString(middleware.ContextEmailKey) {
		// the old token carries a stale neighborhood or email
		token, err := utils.GenerateToken(user.ID, user.Email, user.NeighborhoodID, 0)
		if err != nil {
			serverError(ctx, 50005, "Failed to generate token", err)
			return
		}
		oldToken, claims := middleware.CurrentToken(ctx)
		utils.RevokeToken(oldToken, claims)
		payload["token"] = token
	}

	utils.Respond(ctx, http.StatusOK, 0, "Profile updated successfully", payload)
}

// UpdateProfilePhoto replaces the caller's picture; a request without a file removes it.
func (u *UserController) UpdateProfilePhoto(ctx *gin.Context) {
	user, ok := u.loadSelf(ctx, false)
	if !ok {
		return
	}

	var newKey, newURL *string
	header, err := ctx.FormFile("profile_pic")
	switch {
	case err == nil:
		key, url, err := storage.SaveImage(u.store, storage.ProfilePicturesPrefix, header)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidImage) {
				utils.Error(ctx, http.StatusBadRequest, 40009, err.Error())
				return
			}
			serverError(ctx, 50003, "Failed to store profile picture", err, "user_id", user.ID)
			return
		}
		newKey, newURL = &key, &url
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		utils.Error(ctx, http.StatusBadRequest, 40001, "Invalid request payload")
		return
	}

	oldKey := user.ProfilePicKey
	if err := u.db.Model(user).Updates(map[string]interface{}{
		"profile_pic":     newURL,
		"profile_pic_key": newKey,
	}).Error; err != nil {
		if newKey != nil {
			removeBlobs(u.store, *newKey)
		}
		serverError(ctx, 50009, "Failed to update profile picture", err)
		return
	}
	if oldKey != nil {
		removeBlobs(u.store, *oldKey)
	}

	message := "Profile picture updated successfully"
	if newURL == nil {
		message = "Profile picture removed successfully"
	}
	utils.Respond(ctx, http.StatusOK, 0, message, gin.H{"profile_pic": newURL})
}

// ChangePassword sets a new password after verifying the current one.
func (u *UserController) ChangePassword(ctx *gin.Context) {
	var req struct {
		Password    string `json:"password"`
		NewPassword string `json:"new_password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "Invalid request payload")
		return
	}
	if req.Password == "" || req.NewPassword == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "Current and new password are required")
		return
	}
	if !utils.IsValidPassword(req.NewPassword) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "Password must be between 6 and 72 characters")
		return
	}

	user, ok := u.loadSelf(ctx, false)
	if !ok {
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "Invalid Password")
		return
	}
	if req.Password == req.NewPassword {
		utils.Error(ctx, http.StatusBadRequest, 40010, "New password cannot be the same as the old password")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		serverError(ctx, 50002, "Failed to hash password", err)
		return
	}
	if err := u.db.Model(user).Update("password", hash).Error; err != nil {
		serverError(ctx, 50010, "Failed to update password", err)
		return
	}
	utils.Message(ctx, "Password updated successfully")
}

// DeleteAccount removes the caller and everything they own.
func (u *UserController) DeleteAccount(ctx *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Password == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "Password is required")
		return
	}

	user, ok := u.loadSelf(ctx, false)
	if !ok {
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "Invalid Password")
		return
	}

	var keys []string
	err := u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PostImage{}).
			Joins("JOIN posts ON posts.id = post_images.post_id").
			Where("posts.user_id = ?", user.ID).
			Pluck("post_images.storage_key", &keys).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		serverError(ctx, 50011, "Failed to delete user", err, "user_id", user.ID)
		return
	}

	if user.ProfilePicKey != nil {
		keys = append(keys, *user.ProfilePicKey)
	}
	removeBlobs(u.store, keys...)

	token, claims := middleware.CurrentToken(ctx)
	utils.RevokeToken(token, claims)
	utils.Message(ctx, "User deleted successfully")
}

// Neighbors lists the other residents of the caller's neighborhood.
func (u *UserController) Neighbors(ctx *gin.Context) {
	p := middleware.CurrentPrincipal(ctx)
	neighbors := []models.Author{}
	if err := u.db.Model(&models.User{}).
		Select("id, full_name, profile_pic").
		Where("neighborhood_id = ? AND id <> ?", p.NeighborhoodID, p.UserID).
		Order("full_name ASC, id ASC").
		Find(&neighbors).Error; err != nil {
		serverError(ctx, 50012, "Failed to load neighbors", err)
		return
	}
	utils.Success(ctx, neighbors)
}
