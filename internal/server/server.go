package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/philipparndt/gowall/internal/engine"
	"github.com/philipparndt/gowall/internal/preview"
	"github.com/philipparndt/gowall/internal/storage"
	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/drag"
	"github.com/philipparndt/gowall/pkg/geometry"
	"github.com/philipparndt/gowall/pkg/layout"
	"github.com/philipparndt/gowall/pkg/placement"
)

// Server is the HTTP boundary for renderers, menus and trackers.
// Every request is serialized onto the engine, which is single-threaded.
type Server struct {
	mu      sync.Mutex
	engine  *engine.Engine
	log     *slog.Logger
	app     *fiber.App
	preview preview.Options
}

// Options configures a Server
type Options struct {
	Logger    *slog.Logger
	Preview   preview.Options
	AccessLog bool
}

// New creates the fiber app and registers all routes
func New(e *engine.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		engine:  e,
		log:     opts.Logger,
		preview: opts.Preview,
		app: fiber.New(fiber.Config{
			AppName: "gowall",
		}),
	}

	s.app.Use(recover.New())
	if opts.AccessLog {
		s.app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	s.app.Get("/status", s.getStatus)
	s.app.Get("/state/*", s.getState)
	s.app.Put("/state/*", s.putState)

	s.app.Post("/events/point", s.postPoint)
	s.app.Post("/events/command", s.postCommand)
	s.app.Post("/events/drag", s.postDrag)

	s.app.Get("/objects", s.listObjects)
	s.app.Delete("/objects/:id", s.deleteObject)
	s.app.Post("/objects/:id/layout", s.autoLayout)

	s.app.Post("/wall/nudge", s.nudgeWall)
	s.app.Delete("/wall", s.resetWall)

	s.app.Get("/preview", s.getPreview)
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) getStatus(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.engine.LastStatus())
}

// statePath accepts both /state/objects/<id>/visible and /state/objects.<id>.visible
func statePath(c fiber.Ctx) string {
	return strings.ReplaceAll(strings.Trim(c.Params("*"), "/"), "/", ".")
}

func (s *Server) getState(c fiber.Ctx) error {
	path := statePath(c)

	s.mu.Lock()
	v, err := s.engine.Store().Get(path)
	s.mu.Unlock()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"path": path, "value": present(v)})
}

type updateRequest struct {
	Value any `json:"value"`
}

func (s *Server) putState(c fiber.Ctx) error {
	path := statePath(c)
	var req updateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Store().Update(path, req.Value); err != nil {
		return s.fail(c, err)
	}
	v, _ := s.engine.Store().Get(path)
	return c.JSON(fiber.Map{"path": path, "value": present(v)})
}

func (s *Server) postPoint(c fiber.Ctx) error {
	var ev engine.PointEvent
	if err := json.Unmarshal(c.Body(), &ev); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.HandlePoint(ev); err != nil {
		return s.failWithStatus(c, err)
	}
	return c.JSON(s.engine.LastStatus())
}

func (s *Server) postCommand(c fiber.Ctx) error {
	var cmd engine.ControlCommand
	if err := json.Unmarshal(c.Body(), &cmd); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.HandleCommand(cmd); err != nil {
		return s.failWithStatus(c, err)
	}
	return c.JSON(s.engine.LastStatus())
}

func (s *Server) postDrag(c fiber.Ctx) error {
	var ev engine.DragEvent
	if err := json.Unmarshal(c.Body(), &ev); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	center, err := s.engine.HandleDrag(ev)
	if err != nil {
		return s.failWithStatus(c, err)
	}
	return c.JSON(fiber.Map{"center": center, "dragging": s.engine.Dragging()})
}

func (s *Server) listObjects(c fiber.Ctx) error {
	s.mu.Lock()
	objs := s.engine.Store().Objects()
	s.mu.Unlock()
	return c.JSON(present(objs))
}

func (s *Server) deleteObject(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.DeleteObject(c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) autoLayout(c fiber.Ctx) error {
	n, err := strconv.Atoi(c.Query("n", "1"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "n must be a number"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Params("id")
	if _, err := s.engine.AutoLayout(id, n); err != nil {
		return s.fail(c, err)
	}
	obj, err := s.engine.Store().Object(id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(storage.ToRecord(obj))
}

type nudgeRequest struct {
	Offset float64 `json:"offset"`
}

func (s *Server) nudgeWall(c fiber.Ctx) error {
	var req nudgeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.NudgeWall(req.Offset); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(storage.ToWallRecord(s.engine.Store().Wall()))
}

func (s *Server) resetWall(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ResetWall()
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) getPreview(c fiber.Ctx) error {
	format := c.Query("format", "png")

	s.mu.Lock()
	snap := s.engine.Store().Snapshot()
	s.mu.Unlock()

	img := preview.Render(snap, s.preview)
	var buf bytes.Buffer
	if err := preview.Encode(&buf, img, format); err != nil {
		return s.fail(c, err)
	}
	c.Set("Content-Type", preview.ContentType(format))
	return c.Send(buf.Bytes())
}

func (s *Server) fail(c fiber.Ctx, err error) error {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// failWithStatus also returns the engine status so the UI can show the message
func (s *Server) failWithStatus(c fiber.Ctx, err error) error {
	return c.Status(statusCode(err)).JSON(fiber.Map{
		"error":  err.Error(),
		"status": s.engine.LastStatus(),
	})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, calibration.ErrObjectNotFound),
		errors.Is(err, calibration.ErrUnknownPath):
		return http.StatusNotFound
	case errors.Is(err, calibration.ErrReadOnlyPath):
		return http.StatusMethodNotAllowed
	case errors.Is(err, engine.ErrBusy),
		errors.Is(err, engine.ErrNoActiveFlow),
		errors.Is(err, placement.ErrInvalidTransition),
		errors.Is(err, placement.ErrDebounced),
		errors.Is(err, drag.ErrObjectLocked),
		errors.Is(err, drag.ErrNotDragging),
		errors.Is(err, drag.ErrAlreadyDragging),
		errors.Is(err, calibration.ErrNotCalibrated):
		return http.StatusConflict
	case errors.Is(err, geometry.ErrDegenerateInput),
		errors.Is(err, geometry.ErrNoIntersection),
		errors.Is(err, placement.ErrIncompleteInput),
		errors.Is(err, placement.ErrInvalidTarget),
		errors.Is(err, engine.ErrAnchorCountMismatch),
		errors.Is(err, engine.ErrUnknownCommand),
		errors.Is(err, engine.ErrMissingObject),
		errors.Is(err, layout.ErrInvalidCount),
		errors.Is(err, calibration.ErrInvalidValue),
		errors.Is(err, preview.ErrUnknownFormat):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// present converts store values into their interchange form
func present(v any) any {
	switch t := v.(type) {
	case calibration.SpatialObject:
		return storage.ToRecord(t)
	case []calibration.SpatialObject:
		out := make([]storage.Record, 0, len(t))
		for _, obj := range t {
			out = append(out, storage.ToRecord(obj))
		}
		return out
	case calibration.WallCalibration:
		return storage.ToWallRecord(t)
	case []calibration.Anchor:
		out := make([]storage.AnchorRecord, 0, len(t))
		for _, a := range t {
			out = append(out, storage.AnchorRecord{
				ID:       a.ID,
				ObjectID: a.ObjectID,
				Position: storage.Vector3Data{X: a.LocalPosition.X, Y: a.LocalPosition.Y, Z: a.LocalPosition.Z},
			})
		}
		return out
	}
	return v
}
