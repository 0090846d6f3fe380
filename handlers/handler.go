// Package handlers exposes the field over a JSON REST API.
package handlers

import (
	"errors"
	"field-swarm/auth"
	"field-swarm/logging"
	"field-swarm/models"
	"field-swarm/store"
	"field-swarm/swarm"
	"field-swarm/trust"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Broadcaster pushes a {type, data} message to every connected client.
// *realtime.Hub satisfies it.
type Broadcaster interface {
	Broadcast(messageType string, data any)
}

// Deps are the collaborators a Handler is built from.
type Deps struct {
	Store        *store.Store
	Engine       *swarm.Engine
	Ledger       *trust.Ledger
	Outcomes     *trust.Evaluator
	Auth         *auth.Service
	Hub          Broadcaster
	Log          *zap.Logger
	ActiveWindow time.Duration
}

// Handler owns everything the routes touch. There is no package state.
type Handler struct {
	store        *store.Store
	engine       *swarm.Engine
	ledger       *trust.Ledger
	outcomes     *trust.Evaluator
	auth         *auth.Service
	hub          Broadcaster
	log          *zap.Logger
	activeWindow time.Duration
	now          func() time.Time
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, any) {}

func New(d Deps) *Handler {
	h := &Handler{
		store:        d.Store,
		engine:       d.Engine,
		ledger:       d.Ledger,
		outcomes:     d.Outcomes,
		auth:         d.Auth,
		hub:          d.Hub,
		log:          d.Log,
		activeWindow: d.ActiveWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.hub == nil {
		h.hub = nopBroadcaster{}
	}
	if h.activeWindow <= 0 {
		h.activeWindow = 24 * time.Hour
	}
	return h
}

// NewRouter wires the API under /api and the websocket endpoint at /ws.
// ws may be nil when no realtime hub is running.
func NewRouter(h *Handler, ws http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(logging.GinMiddleware(h.log), gin.Recovery())

	if ws != nil {
		r.GET("/ws", gin.WrapH(ws))
	}
	h.Routes(r.Group("/api"))
	return r
}

// Routes mounts every API route on api.
func (h *Handler) Routes(api gin.IRouter) {
	a := api.Group("/auth")
	{
		a.POST("/validate-code", h.ValidateCode)
		a.POST("/check-pseudonym", h.CheckPseudonym)
		a.POST("/register", h.RegisterUser)
		a.POST("/login", h.Login)
		a.POST("/session", h.Session)
		a.POST("/logout", h.Logout)
		a.POST("/generate-invite", h.GenerateInvite)
	}

	api.GET("/system/metrics", h.GetSystemMetrics)
	api.GET("/system/health", h.GetSystemHealth)

	api.GET("/loops", h.GetLoops)
	api.POST("/loops", h.CreateLoop)
	api.GET("/loops/:id", h.GetLoop)
	api.PATCH("/loops/:id", h.UpdateLoop)
	api.POST("/loops/:id/complete", h.CompleteLoop)

	api.GET("/signals", h.GetSignals)
	api.POST("/signals", h.CreateSignal)
	api.GET("/signals/:id", h.GetSignal)
	api.PATCH("/signals/:id", h.UpdateSignal)
	api.POST("/signals/:id/evaluate", h.EvaluateSignal)

	api.GET("/decisions", h.GetDecisions)
	api.POST("/decisions", h.CreateDecision)
	api.POST("/decisions/:id/join", h.JoinDecision)

	api.GET("/resources", h.GetResources)
	api.POST("/resources", h.CreateResource)
	api.POST("/resources/:id/allocate", h.AllocateResource)

	api.GET("/trust/:userId", h.GetTrustActions)
	api.POST("/trust", h.CreateTrustAction)
	api.POST("/trust/activity", h.RecordTrustActivity)
	api.POST("/trust/signal-activity", h.RecordSignalActivity)

	api.GET("/activities", h.GetActivities)

	api.GET("/institution-bundles", h.GetInstitutionBundles)
	api.POST("/institution-bundles/update", h.UpdateInstitutionBundle)

	api.GET("/side-work", h.GetSideWork)
	api.POST("/side-work/generate", h.GenerateSideWork)
	api.PATCH("/side-work/:id/accept", h.AcceptSideWork)
	api.PATCH("/side-work/:id/complete", h.CompleteSideWork)

	api.GET("/users/:id", h.GetUser)
	api.PATCH("/users/:id", h.UpdateUser)
	api.PATCH("/users/:id/complete-onboarding", h.CompleteOnboarding)
	api.PATCH("/users/:id/complete-orientation", h.CompleteOrientation)
	api.PATCH("/users/:id/sign-field-agreement", h.SignFieldAgreement)

	api.POST("/sanctuary/request", h.RequestSanctuary)

	api.GET("/field-rituals", h.GetFieldRituals)
	api.POST("/field-rituals", h.CreateFieldRitual)
	api.POST("/field-rituals/:id/participate", h.ParticipateInRitual)

	api.GET("/swarm/signals", h.GetSwarmSignals)
	api.POST("/swarm/signals", h.CreateSwarmSignal)
	api.GET("/swarm/:targetType", h.GetSwarmAggregation)
	api.GET("/swarm/:targetType/:targetId", h.GetSwarmAggregation)

	api.GET("/triggers", h.GetActiveTriggers)
	api.GET("/triggers/:targetType", h.CheckTriggers)
	api.GET("/triggers/:targetType/:targetId", h.CheckTriggers)

	api.GET("/signal-library", h.GetLibraryEntries)
	api.POST("/signal-library", h.CreateLibraryEntry)
	api.GET("/signal-library/:id", h.GetLibraryEntry)
	api.PATCH("/signal-library/:id", h.UpdateLibraryEntry)
	api.POST("/signal-library/:id/ripple", h.AddRipple)
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// fail answers a failed operation. Missing rows become 404 with what + " not
// found"; anything else is logged and answered with a generic 500.
func (h *Handler) fail(c *gin.Context, what, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		message(c, http.StatusNotFound, what+" not found")
		return
	}
	_ = c.Error(err)
	h.log.Error(msg,
		zap.String("request_id", logging.RequestID(c)),
		zap.Error(err))
	message(c, http.StatusInternalServerError, msg)
}

// badRequest answers a payload that could not be bound.
func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	message(c, http.StatusBadRequest, "Invalid request body")
}

// pathID parses a numeric path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		message(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// optionalID parses a path or query value that may be absent. Absent or
// unparsable values are nil.
func optionalID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// logActivity appends one entry to the activity feed.
func (h *Handler) logActivity(c *gin.Context, userID *int64, activityType, title, description string, metadata map[string]any) error {
	return h.store.LogActivity(c.Request.Context(), &models.Activity{
		UserID:       userID,
		ActivityType: activityType,
		Title:        title,
		Description:  description,
		Metadata:     metadata,
	})
}
