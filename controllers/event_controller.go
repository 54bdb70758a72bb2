package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/policy"
	"github.com/hoodlink/server/utils"
)

const eventSearchClause = "to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', ?)"

// EventController manages neighborhood events.
type EventController struct {
	db *gorm.DB
}

// NewEventController creates a new EventController instance.
func NewEventController(db *gorm.DB) *EventController {
	return &EventController{db: db}
}

type eventView struct {
	models.Event
	Author models.Author `json:"author"`
}

type eventInput struct {
	Title       string
	Description string
	Location    string
	EventDate   time.Time
}

func eventResource(e *models.Event) policy.Resource {
	return policy.Resource{Kind: "event", OwnerID: e.UserID, NeighborhoodID: e.NeighborhoodID}
}

func hydrateEvents(db *gorm.DB, events []models.Event) ([]eventView, error) {
	userIDs := make([]uint, 0, len(events))
	for _, e := range events {
		userIDs = append(userIDs, e.UserID)
	}
	authors, err := loadAuthors(db, userIDs)
	if err != nil {
		return nil, err
	}
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView{Event: e, Author: authors[e.UserID]})
	}
	return views, nil
}

// readEventInput binds and validates a create or full-replacement update.
func readEventInput(ctx *gin.Context) (eventInput, bool) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		EventDate   string `json:"event_date"`
		Location    string `json:"location"`
	}
	var in eventInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "Invalid request payload")
		return in, false
	}

	in.Title = utils.StripTags(req.Title)
	in.Description = utils.StripTags(req.Description)
	in.Location = utils.StripTags(req.Location)
	if in.Title == "" || in.Description == "" || in.Location == "" || strings.TrimSpace(req.EventDate) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "Title, description, event date and location are required")
		return in, false
	}
	if !utils.WithinLength(req.Title, models.MaxTitleLength) {
		utils.Error(ctx, http.StatusBadRequest, 40043, "Title must be at most 100 characters")
		return in, false
	}
	if !utils.WithinLength(req.Description, models.MaxDescriptionLength) {
		utils.Error(ctx, http.StatusBadRequest, 40044, "Description must be at most 250 characters")
		return in, false
	}

	date, err := utils.ParseEventDate(req.EventDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "Invalid event date")
		return in, false
	}
	if !date.After(time.Now()) {
		utils.Error(ctx, http.StatusBadRequest, 40046, "Event date must be in the future")
		return in, false
	}
	in.EventDate = date
	return in, true
}

func (e *EventController) loadEvent(ctx *gin.Context) (*models.Event, bool) {
	id, ok := parseID(ctx, "eventId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "Invalid event id")
		return nil, false
	}
	var event models.Event
	if err := e.db.First(&event, id).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40441, "Event not found")
			return nil, false
		}
		serverError(ctx, 50041, "Failed to load event", err)
		return nil, false
	}
	return &event, true
}

func (e *EventController) respondEvents(ctx *gin.Context, q *gorm.DB, order string) {
	limit, offset := listPaging(ctx)
	var events []models.Event
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&events).Error; err != nil {
		serverError(ctx, 50042, "Failed to list events", err)
		return
	}
	views, err := hydrateEvents(e.db, events)
	if err != nil {
		serverError(ctx, 50042, "Failed to list events", err)
		return
	}
	utils.Success(ctx, views)
}

func (e *EventController) respondEvent(ctx *gin.Context, status int, message string, event models.Event) {
	views, err := hydrateEvents(e.db, []models.Event{event})
	if err != nil {
		serverError(ctx, 50041, "Failed to load event", err)
		return
	}
	utils.Respond(ctx, status, 0, message, views[0])
}

// CreateEvent schedules an event in the caller's neighborhood.
func (e *EventController) CreateEvent(ctx *gin.Context) {
	in, ok := readEventInput(ctx)
	if !ok {
		return
	}
	principal := middleware.CurrentPrincipal(ctx)
	event := models.Event{
		UserID:         principal.UserID,
		NeighborhoodID: principal.NeighborhoodID,
		Title:          in.Title,
		Description:    in.Description,
		EventDate:      in.EventDate,
		Location:       in.Location,
	}
	if err := e.db.Create(&event).Error; err != nil {
		serverError(ctx, 50043, "Failed to create event", err, "user_id", principal.UserID)
		return
	}
	e.respondEvent(ctx, http.StatusCreated, "Event created successfully", event)
}

// GetEvent returns one event of the caller's neighborhood.
func (e *EventController) GetEvent(ctx *gin.Context) {
	event, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), eventResource(event), policy.Read), 40341) {
		return
	}
	e.respondEvent(ctx, http.StatusOK, "success", *event)
}

// GetEventForEdit returns an event to its owner only.
func (e *EventController) GetEventForEdit(ctx *gin.Context) {
	event, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), eventResource(event), policy.Modify), 40342) {
		return
	}
	e.respondEvent(ctx, http.StatusOK, "success", *event)
}

// ListEvents returns the neighborhood's events by date.
func (e *EventController) ListEvents(ctx *gin.Context) {
	e.respondEvents(ctx, e.db.Where("neighborhood_id = ?", middleware.CurrentPrincipal(ctx).NeighborhoodID), "event_date ASC, id ASC")
}

// ListMyEvents returns the caller's own events.
func (e *EventController) ListMyEvents(ctx *gin.Context) {
	e.respondEvents(ctx, e.db.Where("user_id = ?", middleware.CurrentPrincipal(ctx).UserID), "event_date ASC, id ASC")
}

// SearchEvents runs a full-text search over the neighborhood's events.
func (e *EventController) SearchEvents(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		utils.Error(ctx, http.StatusBadRequest, 40047, "Missing search query")
		return
	}
	e.respondEvents(ctx, e.db.Where("neighborhood_id = ?", middleware.CurrentPrincipal(ctx).NeighborhoodID).Where(eventSearchClause, q), "event_date DESC, id DESC")
}

// SearchMyEvents runs a full-text search over the caller's own events.
func (e *EventController) SearchMyEvents(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		utils.Error(ctx, http.StatusBadRequest, 40047, "Missing search query")
		return
	}
	e.respondEvents(ctx, e.db.Where("user_id = ?", middleware.CurrentPrincipal(ctx).UserID).Where(eventSearchClause, q), "event_date DESC, id DESC")
}

// UpdateEvent fully replaces an event.
func (e *EventController) UpdateEvent(ctx *gin.Context) {
	event, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), eventResource(event), policy.Modify), 40342) {
		return
	}
	in, ok := readEventInput(ctx)
	if !ok {
		return
	}

	if err := e.db.Model(event).Updates(map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"event_date":  in.EventDate,
		"location":    in.Location,
	}).Error; err != nil {
		serverError(ctx, 50044, "Failed to update event", err)
		return
	}
	event.Title, event.Description, event.EventDate, event.Location = in.Title, in.Description, in.EventDate, in.Location
	e.respondEvent(ctx, http.StatusOK, "Event updated successfully", *event)
}

// DeleteEvent removes an event.
func (e *EventController) DeleteEvent(ctx *gin.Context) {
	event, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	if !authorize(ctx, policy.CanAccess(middleware.CurrentPrincipal(ctx), eventResource(event), policy.Modify), 40342) {
		return
	}
	if err := e.db.Delete(&models.Event{}, event.ID).Error; err != nil {
		serverError(ctx, 50045, "Failed to delete event", err)
		return
	}
	utils.Message(ctx, "Event deleted successfully")
}
