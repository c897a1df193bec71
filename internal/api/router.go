// Package api exposes the savings tracker over JSON HTTP.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gitlab.com/yelinaung/savings-tracker/internal/auth"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

// Authenticator is the account surface used by the API.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*auth.Profile, error)
	Login(ctx context.Context, email, password string) (*auth.Profile, error)
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
	RefreshSyncCode(ctx context.Context, id *auth.Identity) (*auth.Profile, error)
	Logout(ctx context.Context, id *auth.Identity) error
}

// Trackers resolves the tracker of an account.
type Trackers interface {
	Get(ctx context.Context, userID string) (*tracker.Tracker, error)
	Evict(ctx context.Context, userID string)
}

// Options configures the router.
type Options struct {
	CORSOrigins []string
	// Debug registers the pprof handlers under /debug/pprof.
	Debug bool
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	auth     Authenticator
	trackers Trackers
	version  string
}

// NewServer creates a Server.
func NewServer(authn Authenticator, trackers Trackers, version string) *Server {
	return &Server{auth: authn, trackers: trackers, version: version}
}

// NewRouter builds the gin engine with middlewares and every route.
func NewRouter(s *Server, opts Options) *gin.Engine {
	r := gin.New()
	r.ForwardedByClientIP = false
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(ginlogger.SetLogger(
		ginlogger.WithDefaultLevel(zerolog.InfoLevel),
		ginlogger.WithClientErrorLevel(zerolog.InfoLevel),
		ginlogger.WithServerErrorLevel(zerolog.ErrorLevel),
		ginlogger.WithLogger(func(c *gin.Context, _ zerolog.Logger) zerolog.Logger {
			return logger.Log.With().
				Str("component", "api").
				Str("request_id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Int("status", c.Writer.Status()).
				Int("size", c.Writer.Size()).
				Logger()
		}),
	))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			AllowCredentials: true,
		}))
	}

	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Ruta no encontrada")
	})
	r.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, "Método no permitido")
	})

	gin.DebugPrintRouteFunc = func(string, string, string, int) {}
	_ = r.SetTrustedProxies(nil)

	if opts.Debug {
		pprof.Register(r)
	}

	s.attachRoutes(r)
	return r
}

// ParseOrigins splits a comma or space separated origin list.
func ParseOrigins(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

func (s *Server) attachRoutes(r *gin.Engine) {
	r.GET("/", s.getRoot)

	a := r.Group("/api/auth")
	a.POST("/register", s.register)
	a.POST("/login", s.login)
	a.POST("/sync-code", s.requireAuth, s.refreshSyncCode)
	a.POST("/logout", s.requireAuth, s.logout)

	api := r.Group("/api", s.requireAuth)
	api.GET("/records", s.getRecords)
	api.PUT("/records", s.putRecords)
	api.POST("/reset", s.reset)
	api.GET("/metrics", s.getMetrics)
	api.GET("/dashboard", s.getDashboard)
	api.PUT("/settings/reminders", s.updateReminderSettings)

	api.GET("/incomes", s.listIncomes)
	api.POST("/incomes", s.addIncome)
	api.DELETE("/incomes/:id", s.deleteIncome)

	api.GET("/expenses", s.listExpenses)
	api.POST("/expenses", s.addExpense)
	api.DELETE("/expenses/:id", s.deleteExpense)

	api.GET("/subscriptions", s.listSubscriptions)
	api.POST("/subscriptions", s.addSubscription)
	api.DELETE("/subscriptions/:id", s.deleteSubscription)

	g := api.Group("/goals")
	g.GET("", s.listGoals)
	g.POST("", s.createGoal)
	g.GET("/templates", s.listTemplates)
	g.GET("/feed", s.contributionFeed)
	g.GET("/:id", s.getGoal)
	g.PATCH("/:id", s.updateGoalDetails)
	g.DELETE("/:id", s.deleteGoal)
	g.POST("/:id/contributions", s.contribute)
	g.PUT("/:id/reminder", s.updateGoalReminder)
	g.POST("/:id/collaborators", s.addCollaborator)
	g.PATCH("/:id/collaborators/:collaboratorId", s.updateCollaboratorRole)
	g.POST("/:id/comments", s.addComment)
	g.PUT("/:id/automation", s.updateAutomation)
	g.GET("/:id/projection", s.projectGoal)
	g.GET("/:id/report", s.goalReport)
}

func (s *Server) getRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Gestor de ahorros API", "version": s.version})
}
