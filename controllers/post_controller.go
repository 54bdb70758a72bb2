package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/policy"
	"github.com/hoodlink/server/storage"
	"github.com/hoodlink/server/utils"
)

const postSearchClause = "to_tsvector('english', title || ' ' || content) @@ plainto_tsquery('english', ?)"

// PostController manages neighborhood posts and their images.
type PostController struct {
	db    *gorm.DB
	store storage.Storage
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, store storage.Storage) *PostController {
	return &PostController{db: db, store: store}
}

type postView struct {
	models.Post
	Author models.Author `json:"author"`
	Images []string      `json:"images"`
}

type postInput struct {
	Title    string `json:"title" form:"title"`
	Content  string `json:"content" form:"content"`
	Category string `json:"category" form:"category"`
}

func postResource(p *models.Post) policy.Resource {
	return policy.Resource{Kind: "post", OwnerID: p.UserID, NeighborhoodID: p.NeighborhoodID}
}

// hydratePosts attaches authors and ordered image URLs to posts.
func hydratePosts(db *gorm.DB, posts []models.Post) ([]postView, error) {
	views := make([]postView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	userIDs := make([]uint, 0, len(posts))
	postIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		userIDs = append(userIDs, p.UserID)
		postIDs = append(postIDs, p.ID)
	}
	authors, err := loadAuthors(db, userIDs)
	if err != nil {
		return nil, err
	}

	var images []models.PostImage
	if err := db.Where("post_id IN ?", postIDs).Order("id ASC").Find(&images).Error; err != nil {
		return nil, err
	}
	byPost := map[uint][]string{}
	for _, img := range images {
		byPost[img.PostID] = append(byPost[img.PostID], img.ImagePath)
	}

	for _, p := range posts {
		urls := byPost[p.ID]
		if urls == nil {
			urls = []string{}
		}
		views = append(views, postView{Post: p, Author: authors[p.UserID], Images: urls})
	}
	return views, nil
}

// readPostInput binds and validates a create or full-replacement update.
// It writes the error response itself.
func readPostInput(ctx *gin.Context) (postInput, []*multipart.FileHeader, bool) {
	var in postInput
	if err := bindForm(ctx, &in); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "Invalid request payload")
		return in, nil, false
	}

	if !utils.WithinLength(in.Title, models.MaxTitleLength) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "Title is required and must be at most 100 characters")
		return in, nil, false
	}
	in.Title = utils.StripTags(in.Title)
	in.Content = utils.StripTags(in.Content)
	if in.Title == "" || in.Content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "Title and content are required")
		return in, nil, false
	}
	in.Category = strings.TrimSpace(in.Category)
	if !models.IsValidCategory(in.Category) {
		utils.Error(ctx, http.StatusBadRequest, 40024, "Invalid Category")
		return in, nil, false
	}

	var files []*multipart.FileHeader
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		files = form.File["images"]
	}
	if len(files) > models.MaxPostImages {
		utils.Error(ctx, http.StatusBadRequest, 40025, "A post can have at most 3 images")
		return in, nil, false
	}
	for _, f := range files {
		if _, err := storage.ValidateImage(f); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40026, err.Error())
			return in, nil, false
		}
	}
	return in, files, true
}

// saveImages writes every upload and returns the image rows to insert.
// Already written blobs are removed when a later one fails.
func (p *PostController) saveImages(files []*multipart.FileHeader) ([]models.PostImage, error) {
	images := make([]models.PostImage, 0, len(files))
	for _, f := range files {
		key, url, err := storage.SaveImage(p.store, storage.PostImagesPrefix, f)
		if err != nil {
			p.discard(images)
			return nil, err
		}
		images = append(images, models.PostImage{ImagePath: url, StorageKey: key})
	}
	return images, nil
}

func (p *PostController) discard(images []models.PostImage) {
	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.StorageKey)
	}
	removeBlobs(p.store, keys...)
}

// loadPost resolves :postId and writes 400/404 responses itself.
func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx, "postId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "Invalid post id")
		return nil, false
	}
	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40421, "Post not found")
			return nil, false
		}
		serverError(ctx, 50021, "Failed to load post", err)
		return nil, false
	}
	return &post, true
}

func (p *PostController) respondPosts(ctx *gin.Context, q *gorm.DB) {
	limit, offset := listPaging(ctx)
	var posts []models.Post
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		serverError(ctx, 50022, "Failed to list posts", err)
		return
	}
	views, err := hydratePosts(p.db, posts)
	if err != nil {
		serverError(ctx, 50022, "Failed to list posts", err)
		return
	}
	utils.Success(ctx, views)
}

func (p *PostController) respondPost(ctx *gin.Context, status int, message string, post models.Post) {
	views, err := hydratePosts(p.db, []models.Post{post})
	if err != nil {
		serverError(ctx, 50021, "Failed to load post", err)
		return
	}
	utils.Respond(ctx, status, 0, message, views[0])
}

// CreatePost publishes a post with up to three images in the caller's neighborhood.
func (p *PostController) CreatePost(ctx *gin.Context) {
	in, files, ok := readPostInput(ctx)
	if !ok {
		return
	}
	principal := middleware.CurrentPrincipal(ctx)

	images, err := p.saveImages(files)
	if err != nil {
		serverError(ctx, 50023, "Failed to store images", err, "user_id", principal.UserID)
		return
	}

	post := models.Post{
		UserID:         principal.UserID,
		NeighborhoodID: principal.NeighborhoodID,
		Title:          in.Title,
		Content:        in.Content,
		Category:       in.Category,
	}
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images").Create(&post).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].PostID = post.ID
		}
		if len(images) > 0 {
			return tx.Create(&images).Error
		}
		return nil
	})
	if err != nil {
		p.discard(images)
		serverError(ctx, 50024, "Failed to create post", err, "user_id", principal.UserID)
		return
	}

	p.respondPost(ctx, http.StatusCreated, "Post created successfully", post)
}

// GetPost returns one post of the caller's neighborhood.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), postResource(post), policy.Read), 40321) {
		return
	}
	p.respondPost(ctx, http.StatusOK, "success", *post)
}

// GetPostForEdit returns a post to its owner only.
func (p *PostController) GetPostForEdit(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), postResource(post), policy.Modify), 40322) {
		return
	}
	p.respondPost(ctx, http.StatusOK, "success", *post)
}

// ListPosts returns the neighborhood feed, optionally filtered by ?category=.
func (p *PostController) ListPosts(ctx *gin.Context) {
	q := p.db.Where("neighborhood_id = ?", middleware.CurrentPrincipal(ctx).NeighborhoodID)
	if category := strings.TrimSpace(ctx.Query("category")); category != "" {
		if !models.IsValidCategory(category) {
			utils.Error(ctx, http.StatusBadRequest, 40024, "Invalid Category")
			return
		}
		q = q.Where("category = ?", category)
	}
	p.respondPosts(ctx, q)
}

// ListByCategory is ListPosts with the category in the path.
func (p *PostController) ListByCategory(ctx *gin.Context) {
	category := ctx.Param("category")
	if !models.IsValidCategory(category) {
		utils.Error(ctx, http.StatusBadRequest, 40024, "Invalid Category")
		return
	}
	p.respondPosts(ctx, p.db.Where("neighborhood_id = ? AND category = ?", middleware.CurrentPrincipal(ctx).NeighborhoodID, category))
}

// ListMyPosts returns the caller's own posts.
func (p *PostController) ListMyPosts(ctx *gin.Context) {
	p.respondPosts(ctx, p.db.Where("user_id = ?", middleware.CurrentPrincipal(ctx).UserID))
}

// SearchMyPosts runs a full-text search over the caller's own posts.
func (p *PostController) SearchMyPosts(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		utils.Error(ctx, http.StatusBadRequest, 40027, "Missing search query")
		return
	}
	p.respondPosts(ctx, p.db.Where("user_id = ?", middleware.CurrentPrincipal(ctx).UserID).Where(postSearchClause, q))
}

// SearchPosts runs a full-text search over the neighborhood feed.
func (p *PostController) SearchPosts(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		utils.Error(ctx, http.StatusBadRequest, 40027, "Missing search query")
		return
	}
	p.respondPosts(ctx, p.db.Where("neighborhood_id = ?", middleware.CurrentPrincipal(ctx).NeighborhoodID).Where(postSearchClause, q))
}

// UpdatePost fully replaces a post, images included.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), postResource(post), policy.Modify), 40322) {
		return
	}
	in, files, ok := readPostInput(ctx)
	if !ok {
		return
	}

	images, err := p.saveImages(files)
	if err != nil {
		serverError(ctx, 50023, "Failed to store images", err)
		return
	}

	var oldKeys []string
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Updates(map[string]interface{}{
			"title":    in.Title,
			"content":  in.Content,
			"category": in.Category,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PostImage{}).Where("post_id = ?", post.ID).Pluck("storage_key", &oldKeys).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].PostID = post.ID
		}
		if len(images) > 0 {
			return tx.Create(&images).Error
		}
		return nil
	})
	if err != nil {
		p.discard(images)
		serverError(ctx, 50025, "Failed to update post", err, "post_id", post.ID)
		return
	}
	removeBlobs(p.store, oldKeys...)
	post.Title, post.Content, post.Category = in.Title, in.Content, in.Category

	p.respondPost(ctx, http.StatusOK, "Post updated successfully", *post)
}

// DeletePost removes a post, its images and its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), postResource(post), policy.Modify), 40322) {
		return
	}

	var keys []string
	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PostImage{}).Where("post_id = ?", post.ID).Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, post.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "Post not found")
			return
		}
		serverError(ctx, 50026, "Failed to delete post", err)
		return
	}
	removeBlobs(p.store, keys...)
	utils.Message(ctx, "Post deleted successfully")
}
