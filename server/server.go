package server

import (
	"context"
	"net/http"
	"time"

	"user-server/confs"
	"user-server/db"
	"user-server/handlers"
	httpHandler "user-server/handlers/http"
	"user-server/repositories"
	"user-server/usecases"
	"user-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	app *gin.Engine
	cfg *confs.Config
	db  db.Database
	hub *ws.Hub
	log *logrus.Logger
}

// NewServer builds the router. A nil database runs against the in-memory store.
func NewServer(cfg *confs.Config, database db.Database, log *logrus.Logger) *Server {
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		app: gin.New(),
		cfg: cfg,
		db:  database,
		hub: ws.NewHub(log),
		log: log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(gin.Recovery(), requestLogger(s.log))

	// Setup CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader}
	s.app.Use(cors.New(config))

	// Setup healthcheck route
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"name":    s.cfg.App.Name,
			"version": s.cfg.App.Version,
		})
	})

	// Initialize repositories
	var userRepo repositories.UserRepository
	var bookRepo repositories.BookRepository
	if s.db != nil {
		userRepo = repositories.NewUserGormRepository(s.db)
		bookRepo = repositories.NewBookGormRepository(s.db)
	} else {
		s.log.Warn("no database configured, using in-memory store")
		store := repositories.NewMemoryStore()
		userRepo = store.Users()
		bookRepo = store.Books()
	}

	// Initialize use cases
	userUseCase := usecases.NewUserUseCase(userRepo, bookRepo, s.hub, s.log)

	// Initialize handlers
	userHandler := httpHandler.NewUserHandler(userUseCase, s.log)
	bookHandler := httpHandler.NewBookHandler(userUseCase, s.log)
	wsHandler := handlers.NewWSHandler(s.hub, s.log)

	s.app.POST("/user", userHandler.CreateUser)

	users := s.app.Group("/users")
	{
		users.GET("", userHandler.GetAllUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
		users.GET("/:id/books", bookHandler.GetUserBooks)
		users.POST("/:id/books", bookHandler.CreateUserBook)
	}

	s.app.DELETE("/books/:id", bookHandler.DeleteBook)

	s.app.GET("/ws/users", wsHandler.HandleUserEvents)
	s.app.GET("/ws/subscribers", wsHandler.GetSubscribers)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Start serves until ctx is cancelled, then drains in-flight requests and
// closes the database.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.App.Addr,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// websocket connections are hijacked and not tracked by Shutdown
		s.hub.Close()
		if s.db != nil {
			if cerr := s.db.Close(); cerr != nil {
				s.log.WithError(cerr).Error("closing database")
			}
		}
		return errors.Wrap(err, "shutdown")
	})

	return g.Wait()
}
