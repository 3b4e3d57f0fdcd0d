// Package ingest implements the Ingestion API: authenticated chunked video
// upload, submission, edit/delete, download, and the catalog lookup
// endpoints, all behind HTTP Basic auth.
package ingest

import (
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"maprandovideos.io/videos/internal/auth"
	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/pkg/objectstore"
	"maprandovideos.io/videos/pkg/queue"
)

// defaultMaxUploadPartSize applies when NewServer is given an unparseable
// or empty size string, so a misconfigured deployment fails open to a sane
// bound rather than no bound at all.
const defaultMaxUploadPartSize = 64 << 20

// Server bundles the Ingestion API's dependencies behind an *echo.Echo, the
// same Webserver-over-echo shape the teacher uses for its own HTTP surface.
type Server struct {
	*echo.Echo

	queries      *catalog.Queries
	store        *objectstore.Store
	queue        *queue.Client
	xzLevel      int
	maxPartBytes uint64
	publicURL    string
}

// NewServer builds the Ingestion API, wiring middleware and routes.
// maxUploadPartSize is a human-readable size ("64M", "1G"); an empty or
// malformed value falls back to defaultMaxUploadPartSize. publicURL is the
// client-facing base under which rendition objects are served; empty omits
// rendition URLs from video DTOs.
func NewServer(queries *catalog.Queries, store *objectstore.Store, q *queue.Client, xzLevel int, maxUploadPartSize, publicURL string) *Server {
	maxPartBytes, err := humanize.ParseBytes(maxUploadPartSize)
	if err != nil {
		slog.Warn("invalid MAX_UPLOAD_PART_SIZE, using default", "input", maxUploadPartSize, "default", humanize.Bytes(defaultMaxUploadPartSize))
		maxPartBytes = defaultMaxUploadPartSize
	}

	e := echo.New()
	s := &Server{Echo: e, queries: queries, store: store, queue: q, xzLevel: xzLevel, maxPartBytes: maxPartBytes, publicURL: publicURL}

	s.setupMiddleware()
	s.registerRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("16M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// The upload/download bodies are already compressed streams;
			// double-gzipping them wastes CPU for no benefit.
			switch c.Path() {
			case "/upload-video", "/download-video":
				return true
			default:
				return false
			}
		},
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))
}

func (s *Server) registerRoutes() {
	s.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := s.Group("")
	api.Use(s.authenticate)

	api.GET("/sign-in", s.handleSignIn)

	api.POST("/upload-video", s.handleUploadVideo)
	api.POST("/submit-video", s.handleSubmitVideo)
	api.POST("/edit-video", s.handleEditVideo)
	api.DELETE("/", s.handleDeleteVideo)
	api.GET("/download-video", s.handleDownloadVideo)

	api.GET("/get-video", s.handleGetVideo)
	api.GET("/list-videos", s.handleListVideos)

	api.GET("/list-users", s.handleListUsers)
	api.GET("/rooms-by-area", s.handleRoomsByArea)
	api.GET("/nodes", s.handleNodes)
	api.GET("/strats", s.handleStrats)
	api.GET("/tech", s.handleListTech)
	api.POST("/tech", s.handleUpsertTech)
}

const accountContextKey = "ingest_account"

// authenticate enforces HTTP Basic auth on every route in the api group,
// per §4.4.1: a missing user, wrong password, or unrecognized role all
// collapse to one 401 outcome.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		account, err := auth.Authenticate(c.Request().Context(), s.queries, c.Request())
		if err != nil {
			return c.String(http.StatusUnauthorized, "unauthorized")
		}
		c.Set(accountContextKey, account)
		return next(c)
	}
}

func accountFromContext(c echo.Context) *catalog.Account {
	account, _ := c.Get(accountContextKey).(*catalog.Account)
	return account
}
