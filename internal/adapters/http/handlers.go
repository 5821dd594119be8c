package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/usecases"
)

// maxImportNodes bounds a single import request.
const maxImportNodes = 5000

type createSessionBody struct {
	Width  float64               `json:"width"`
	Height float64               `json:"height"`
	Center *domain.GeoPoint      `json:"center,omitempty"`
	Zoom   *float64              `json:"zoom,omitempty"`
	Nodes  []domain.TopologyNode `json:"nodes,omitempty"`
}

type mapViewBody struct {
	Center *domain.GeoPoint `json:"center"`
	Zoom   *float64         `json:"zoom"`
}

type cameraBody struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Ratio float64 `json:"ratio"`
	Angle float64 `json:"angle"`
	Steps int     `json:"steps"`
}

type sizeBody struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type importBody struct {
	Nodes []domain.TopologyNode `json:"nodes"`
}

// respondSnapshot writes a snapshot, dropping the node list when the client
// asked for ?nodes=false.
func respondSnapshot(c *fiber.Ctx, status int, snap *domain.ViewportSnapshot) error {
	if !c.QueryBool("nodes", true) {
		stripped := *snap
		stripped.Nodes = nil
		snap = &stripped
	}
	return c.Status(status).JSON(snap)
}

// ---- Sessions ----

// CreateSessionHandler binds a new viewport session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body createSessionBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(body.Nodes) > maxImportNodes {
			return errBadRequest(c, "too many nodes (max 5000)")
		}

		snap, err := deps.Sessions.Create(c.UserContext(), usecases.CreateSessionRequest{
			Width:  body.Width,
			Height: body.Height,
			Center: body.Center,
			Zoom:   body.Zoom,
			Nodes:  body.Nodes,
		})
		if err != nil {
			return serviceError(c, err)
		}
		c.Location("/v1/sessions/" + snap.SessionID)
		return respondSnapshot(c, fiber.StatusCreated, snap)
	}
}

// ListSessionsHandler returns the ids of the sessions held by this instance.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids := deps.Sessions.IDs()
		return c.JSON(fiber.Map{
			"sessions": ids,
			"count":    len(ids),
		})
	}
}

// GetSessionHandler returns the latest snapshot of a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Snapshot(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return respondSnapshot(c, fiber.StatusOK, snap)
	}
}

// DeleteSessionHandler unbinds a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Close(c.UserContext(), c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MoveMapHandler sets the map center and zoom.
func MoveMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body mapViewBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Center == nil || body.Zoom == nil {
			return errBadRequest(c, "center and zoom are required")
		}

		snap, err := deps.Sessions.MoveMap(c.UserContext(), c.Params("id"), *body.Center, *body.Zoom)
		if err != nil {
			return serviceError(c, err)
		}
		return respondSnapshot(c, fiber.StatusOK, snap)
	}
}

// FitBoundsHandler fits the map to a bounding box.
func FitBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body domain.GeoBounds
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		snap, err := deps.Sessions.FitBounds(c.UserContext(), c.Params("id"), body)
		if err != nil {
			return serviceError(c, err)
		}
		return respondSnapshot(c, fiber.StatusOK, snap)
	}
}

// SetCameraHandler moves the graph camera, optionally animated.
func SetCameraHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body cameraBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Steps < 0 {
			return errBadRequest(c, "steps must not be negative")
		}

		state := domain.CameraState{X: body.X, Y: body.Y, Ratio: body.Ratio, Angle: body.Angle}
		snap, err := deps.Sessions.SetCamera(c.UserContext(), c.Params("id"), state, body.Steps)
		if err != nil {
			return serviceError(c, err)
		}
		return respondSnapshot(c, fiber.StatusOK, snap)
	}
}

// ResizeHandler changes the session's drawing surface.
func ResizeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body sizeBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		snap, err := deps.Sessions.Resize(c.UserContext(), c.Params("id"), body.Width, body.Height)
		if err != nil {
			return serviceError(c, err)
		}
		return respondSnapshot(c, fiber.StatusOK, snap)
	}
}

// ---- Nodes ----

// ImportNodesHandler stores a batch of topology nodes.
func ImportNodesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Nodes == nil {
			return errUnavailable(c, "node storage not configured")
		}
		var body importBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(body.Nodes) == 0 {
			return errBadRequest(c, "nodes are required")
		}
		if len(body.Nodes) > maxImportNodes {
			return errBadRequest(c, "too many nodes (max 5000)")
		}

		n, err := deps.Nodes.Import(c.UserContext(), body.Nodes)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"imported": n})
	}
}

// ListNodesHandler returns stored nodes with offset/limit pagination.
func ListNodesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Nodes == nil {
			return errUnavailable(c, "node storage not configured")
		}
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		nodes, err := deps.Nodes.List(c.UserContext(), maxImportNodes)
		if err != nil {
			return serviceError(c, err)
		}

		pg, page := paginate(nodes, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetNodeHandler returns a single node.
func GetNodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Nodes == nil {
			return errUnavailable(c, "node storage not configured")
		}
		node, err := deps.Nodes.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(node)
	}
}

// NodesInBoundsHandler returns the nodes inside south/west/north/east.
func NodesInBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Nodes == nil {
			return errUnavailable(c, "node storage not configured")
		}
		for _, k := range []string{"south", "west", "north", "east"} {
			if c.Query(k) == "" {
				return errBadRequest(c, "south, west, north and east are required")
			}
		}
		b := domain.GeoBounds{
			SouthWest: domain.GeoPoint{Lat: c.QueryFloat("south"), Lng: c.QueryFloat("west")},
			NorthEast: domain.GeoPoint{Lat: c.QueryFloat("north"), Lng: c.QueryFloat("east")},
		}

		nodes, err := deps.Nodes.InBounds(c.UserContext(), b, c.QueryInt("limit", 500))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(nodes)
	}
}
