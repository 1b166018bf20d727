package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/log"
	"github.com/mwantia/snaptree/source"
)

// Server exposes any ChildSource over HTTP:
//
//	GET /api/health
//	GET /api/roots/:root/snapshots/:snapshot/children?path=/...
//
// Together with ClientSource this realizes the request/response
// transport the browse layer is usually deployed with.
type Server struct {
	echo   *echo.Echo
	src    source.ChildSource
	logger *log.Logger
}

// NewServer creates a children endpoint serving from src. A nil logger
// falls back to a default one.
func NewServer(src source.ChildSource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewLogger("httpapi", log.Info, "", false)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:   e,
		src:    src,
		logger: logger,
	}

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/roots/:root/snapshots/:snapshot/children", s.handleChildren)

	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins serving on the given address and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("Serving children endpoint on %s (source: %s)", addr, s.src.Name())
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"source": s.src.Name(),
	})
}

func (s *Server) handleChildren(c echo.Context) error {
	rootID, err := strconv.ParseInt(c.Param("root"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid root id"})
	}

	snapshotID, err := strconv.ParseInt(c.Param("snapshot"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid snapshot id"})
	}

	parentPath := c.QueryParam("path")
	if parentPath == "" {
		parentPath = data.PathSeparator
	}

	requestID := c.Request().Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	bctx := data.BrowseContext{RootID: rootID, SnapshotID: snapshotID}
	entries, err := s.src.FetchImmediateChildren(c.Request().Context(), bctx, parentPath)
	if err != nil {
		s.logger.Error("Fetch for '%s' (%s) failed: %v", parentPath, bctx, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	response := childrenResponse{
		RequestID: requestID,
		Parent:    data.NormalizePath(parentPath),
		Entries:   make([]wireEntry, len(entries)),
	}
	for i, entry := range entries {
		response.Entries[i] = toWire(entry)
	}

	return c.JSON(http.StatusOK, response)
}
