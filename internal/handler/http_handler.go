package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ryuhosoy/mobile-gym-app/internal/audit"
	"github.com/ryuhosoy/mobile-gym-app/internal/chat"
	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
	"github.com/ryuhosoy/mobile-gym-app/internal/identity"
	"github.com/ryuhosoy/mobile-gym-app/internal/places"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
	"github.com/ryuhosoy/mobile-gym-app/pkg/log"
	"github.com/ryuhosoy/mobile-gym-app/pkg/response"
)

// Handler handles the REST surface: auth, rooms, messages, gym search.
type Handler struct {
	store  store.Store
	ident  *identity.Service
	rooms  *chat.Rooms
	places *places.Client
}

// NewHandler creates the REST handler.
func NewHandler(st store.Store, ident *identity.Service, rooms *chat.Rooms, placesClient *places.Client) *Handler {
	return &Handler{
		store:  st,
		ident:  ident,
		rooms:  rooms,
		places: placesClient,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/auth/signup", h.SignUp)
		api.POST("/auth/signin", h.SignIn)

		api.GET("/gyms/search", h.SearchGyms)
		api.GET("/gyms/:id", h.GymDetails)
		api.GET("/gyms/:id/distance", h.GymDistance)

		authed := api.Group("", RequireAuth(h.ident))
		{
			authed.GET("/rooms", h.ListRooms)
			authed.POST("/rooms", h.CreateRoom)
			authed.GET("/rooms/:id", h.GetRoom)
			authed.GET("/rooms/:id/messages", h.GetMessages)
			authed.POST("/rooms/:id/messages", h.SendMessage)
		}
	}
}

// SignUp registers an account and returns a token.
func (h *Handler) SignUp(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.ident.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			response.Conflict(c, "email is already registered")
		case errors.Is(err, identity.ErrMissingCredentials):
			response.BadRequest(c, "email and password are required")
		default:
			l.Error().Err(err).Msg("sign up failed")
			response.InternalError(c, "sign up failed")
		}
		return
	}

	token, err := h.ident.Token(user)
	if err != nil {
		l.Error().Err(err).Msg("token issuance failed")
		response.InternalError(c, "sign up failed")
		return
	}

	audit.Log(ctx, audit.ActionSignUp, user.ID, "account created")
	response.Created(c, domain.AuthResponse{User: *user, Token: token})
}

// SignIn authenticates and returns a token.
func (h *Handler) SignIn(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.ident.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrMissingCredentials):
			response.Unauthorized(c, "invalid email or password")
		default:
			l.Error().Err(err).Msg("sign in failed")
			response.InternalError(c, "sign in failed")
		}
		return
	}

	token, err := h.ident.Token(user)
	if err != nil {
		l.Error().Err(err).Msg("token issuance failed")
		response.InternalError(c, "sign in failed")
		return
	}

	audit.Log(ctx, audit.ActionSignIn, user.ID, "signed in")
	response.Success(c, domain.AuthResponse{User: *user, Token: token})
}

// ListRooms returns the caller's rooms, newest first.
func (h *Handler) ListRooms(c *gin.Context) {
	ctx := c.Request.Context()
	user := UserFrom(c)

	views, err := h.rooms.ListForUser(ctx, user.ID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("room list failed")
		response.InternalError(c, "failed to list rooms")
		return
	}
	response.Success(c, views)
}

// CreateRoom opens a chat room with a gym.
func (h *Handler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	user := UserFrom(c)

	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	roomID, err := h.rooms.Create(ctx, identity.Fixed(user), req.GymID, req.GymName)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrMissingGym):
			response.BadRequest(c, "gym metadata is required")
		default:
			response.InternalError(c, "failed to create room")
		}
		return
	}

	audit.LogWithDetail(ctx, audit.ActionCreateRoom, user.ID, roomID, "chat room created")
	response.Created(c, gin.H{"room_id": roomID})
}

// GetRoom returns one room record.
func (h *Handler) GetRoom(c *gin.Context) {
	ctx := c.Request.Context()

	view, err := h.rooms.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("room fetch failed")
		response.InternalError(c, "failed to fetch room")
		return
	}
	response.Success(c, view)
}

// GetMessages returns a room's log in display order.
func (h *Handler) GetMessages(c *gin.Context) {
	ctx := c.Request.Context()

	msgs, err := h.rooms.MessageLog(ctx, c.Param("id"))
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("message log fetch failed")
		response.InternalError(c, "failed to fetch messages")
		return
	}
	response.Success(c, msgs)
}

// SendMessage appends a message through a short-lived chat session.
// A blank text is the same silent no-op the app performs.
func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	user := UserFrom(c)
	roomID := c.Param("id")

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.rooms.Get(ctx, roomID); err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		response.InternalError(c, "failed to fetch room")
		return
	}

	session, err := chat.OpenSession(ctx, h.store, identity.Fixed(user), roomID, nil)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("session open failed")
		response.InternalError(c, "failed to open session")
		return
	}
	defer session.Close()

	session.SetDraft(req.Text)
	if err := session.Send(ctx); err != nil {
		response.InternalError(c, "failed to send message")
		return
	}

	sent := strings.TrimSpace(req.Text) != ""
	if sent {
		audit.LogWithDetail(ctx, audit.ActionSendMessage, user.ID, roomID, "message sent")
	}
	response.Success(c, gin.H{"sent": sent})
}

// SearchGyms searches gyms by free text or around a location, then
// applies the app's filters and sort.
func (h *Handler) SearchGyms(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	origin := domain.LatLng{
		Lat: parseFloat(c.Query("lat")),
		Lng: parseFloat(c.Query("lng")),
	}

	var (
		results []domain.Place
		err     error
	)
	if q := c.Query("q"); q != "" {
		results, err = h.places.TextSearch(ctx, q)
	} else {
		radius := int(parseFloat(c.DefaultQuery("radius", "5000")))
		results, err = h.places.NearbySearch(ctx, origin, radius, c.Query("keyword"))
	}
	if err != nil {
		l.Error().Err(err).Msg("gym search failed")
		response.BadGateway(c, "gym search failed")
		return
	}

	filter := places.Filter{OpenNow: c.Query("open_now") == "true"}
	if c.Query("high_rating") == "true" {
		filter.MinRating = places.FilterHighRating
	}
	if c.Query("well_reviewed") == "true" {
		filter.MinReviews = places.FilterWellReviewed
	}
	results = filter.Apply(results)

	if by := places.SortBy(c.Query("sort")); by != "" {
		places.Sort(results, by, origin)
	}

	response.Success(c, results)
}

// GymDetails returns the detail record for one gym.
func (h *Handler) GymDetails(c *gin.Context) {
	ctx := c.Request.Context()

	details, err := h.places.Details(ctx, c.Param("id"))
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldGymID, c.Param("id")).Msg("gym details failed")
		response.BadGateway(c, "gym details failed")
		return
	}
	response.Success(c, details)
}

// GymDistance returns walking distance and duration from the caller's
// location to a gym.
func (h *Handler) GymDistance(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	from := domain.LatLng{
		Lat: parseFloat(c.Query("lat")),
		Lng: parseFloat(c.Query("lng")),
	}

	details, err := h.places.Details(ctx, c.Param("id"))
	if err != nil {
		l.Error().Err(err).Str(log.FieldGymID, c.Param("id")).Msg("gym details failed")
		response.BadGateway(c, "gym details failed")
		return
	}
	if details.Geometry == nil {
		response.NotFound(c, "gym has no location")
		return
	}

	info, err := h.places.WalkingDistance(ctx, from, details.Geometry.Location)
	if err != nil {
		l.Error().Err(err).Str(log.FieldGymID, c.Param("id")).Msg("distance lookup failed")
		response.BadGateway(c, "distance lookup failed")
		return
	}
	response.Success(c, info)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
