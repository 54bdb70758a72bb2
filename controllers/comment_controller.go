package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/policy"
	"github.com/hoodlink/server/utils"
)

// CommentController manages replies on posts.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

type commentView struct {
	ID        uint          `json:"id"`
	PostID    uint          `json:"post_id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Author    models.Author `json:"author"`
}

func toCommentView(c models.Comment, author models.Author) commentView {
	return commentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author:    author,
	}
}

// readCommentContent validates the body; it writes the 400 itself.
func readCommentContent(ctx *gin.Context) (string, bool) {
	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "Invalid content")
		return "", false
	}
	if !utils.WithinLength(req.Content, models.MaxCommentLength) {
		utils.Error(ctx, http.StatusBadRequest, 40031, "Invalid content")
		return "", false
	}
	content := utils.StripTags(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "Invalid content")
		return "", false
	}
	return content, true
}

// readablePost resolves :postId and applies the Read policy. It writes the error response itself.
func (c *CommentController) readablePost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx, "postId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "Invalid post id")
		return nil, false
	}
	var post models.Post
	if err := c.db.First(&post, id).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40421, "Post not found")
			return nil, false
		}
		serverError(ctx, 50021, "Failed to load post", err)
		return nil, false
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), postResource(&post), policy.Read), 40331) {
		return nil, false
	}
	return &post, true
}

// ownComment resolves :id and applies the Modify policy. It writes the error response itself.
func (c *CommentController) ownComment(ctx *gin.Context) (*models.Comment, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40030, "Invalid comment id")
		return nil, false
	}
	var comment models.Comment
	if err := c.db.First(&comment, id).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40431, "Comment not found")
			return nil, false
		}
		serverError(ctx, 50031, "Failed to load comment", err)
		return nil, false
	}
	resource := policy.Resource{Kind: "comment", OwnerID: comment.UserID}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), resource, policy.Modify), 40332) {
		return nil, false
	}
	return &comment, true
}

func (c *CommentController) author(userID uint) models.Author {
	authors, err := loadAuthors(c.db, []uint{userID})
	if err != nil {
		return models.Author{ID: userID}
	}
	return authors[userID]
}

// CreateComment adds a reply to a post of the caller's neighborhood.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	content, ok := readCommentContent(ctx)
	if !ok {
		return
	}
	post, ok := c.readablePost(ctx)
	if !ok {
		return
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  middleware.CurrentPrincipal(ctx).UserID,
		Content: content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		serverError(ctx, 50032, "Failed to create comment", err, "post_id", post.ID)
		return
	}
	utils.Created(ctx, "Comment added successfully", toCommentView(comment, c.author(comment.UserID)))
}

// ListComments returns a post's comments, oldest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	post, ok := c.readablePost(ctx)
	if !ok {
		return
	}

	var comments []models.Comment
	if err := c.db.Where("post_id = ?", post.ID).Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		serverError(ctx, 50033, "Failed to list comments", err)
		return
	}
	userIDs := make([]uint, 0, len(comments))
	for _, cm := range comments {
		userIDs = append(userIDs, cm.UserID)
	}
	authors, err := loadAuthors(c.db, userIDs)
	if err != nil {
		serverError(ctx, 50033, "Failed to list comments", err)
		return
	}

	views := make([]commentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, toCommentView(cm, authors[cm.UserID]))
	}
	utils.Success(ctx, views)
}

// UpdateComment replaces the text of the caller's comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	comment, ok := c.ownComment(ctx)
	if !ok {
		return
	}
	content, ok := readCommentContent(ctx)
	if !ok {
		return
	}
	if err := c.db.Model(comment).Update("content", content).Error; err != nil {
		serverError(ctx, 50034, "Failed to update comment", err)
		return
	}
	comment.Content = content
	utils.Respond(ctx, http.StatusOK, 0, "Comment updated successfully", toCommentView(*comment, c.author(comment.UserID)))
}

// DeleteComment removes the caller's comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	comment, ok := c.ownComment(ctx)
	if !ok {
		return
	}
	if err := c.db.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		serverError(ctx, 50035, "Failed to delete comment", err)
		return
	}
	utils.Message(ctx, "Comment deleted successfully")
}
