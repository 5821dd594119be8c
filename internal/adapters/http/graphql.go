package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/topomap/internal/core/domain"
)

var errNodesUnavailable = errors.New("node storage not configured")

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	xyType := func(name string) *graphql.Object {
		return graphql.NewObject(graphql.ObjectConfig{
			Name: name,
			Fields: graphql.Fields{
				"x": &graphql.Field{Type: graphql.Float},
				"y": &graphql.Field{Type: graphql.Float},
			},
		})
	}

	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoBounds",
		Fields: graphql.Fields{
			"south_west": &graphql.Field{Type: geoPointType},
			"north_east": &graphql.Field{Type: geoPointType},
		},
	})

	dimensionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dimensions",
		Fields: graphql.Fields{
			"width":  &graphql.Field{Type: graphql.Float},
			"height": &graphql.Field{Type: graphql.Float},
		},
	})

	mapViewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Float},
			"bounds": &graphql.Field{Type: boundsType},
			"size":   &graphql.Field{Type: dimensionsType},
		},
	})

	cameraType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Camera",
		Fields: graphql.Fields{
			"x":     &graphql.Field{Type: graphql.Float},
			"y":     &graphql.Field{Type: graphql.Float},
			"ratio": &graphql.Field{Type: graphql.Float},
			"angle": &graphql.Field{Type: graphql.Float},
		},
	})

	projectedNodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProjectedNode",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"label":    &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"graph":    &graphql.Field{Type: xyType("GraphPoint")},
			"viewport": &graphql.Field{Type: xyType("ViewportPoint")},
			"visible":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"session_id":   &graphql.Field{Type: graphql.String},
			"state":        &graphql.Field{Type: graphql.String},
			"map":          &graphql.Field{Type: mapViewType},
			"camera":       &graphql.Field{Type: cameraType},
			"dimensions":   &graphql.Field{Type: dimensionsType},
			"drift_meters": &graphql.Field{Type: graphql.Float},
			"nodes": &graphql.Field{
				Type: graphql.NewList(projectedNodeType),
				Args: graphql.FieldConfigArgument{
					"visibleOnly": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					snap, ok := p.Source.(*domain.ViewportSnapshot)
					if !ok {
						return nil, nil
					}
					if !p.Args["visibleOnly"].(bool) {
						return snap.Nodes, nil
					}
					visible := make([]domain.ProjectedNode, 0, len(snap.Nodes))
					for _, n := range snap.Nodes {
						if n.Visible {
							visible = append(visible, n)
						}
					}
					return visible, nil
				},
			},
		},
	})

	nodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"label":      &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"viewport": &graphql.Field{
				Type:        viewportType,
				Description: "Latest snapshot of a viewport session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Snapshot(p.Context, p.Args["id"].(string))
				},
			},
			"sessions": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Ids of the sessions held by this instance",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.IDs(), nil
				},
			},
			"node": &graphql.Field{
				Type:        nodeType,
				Description: "Get a topology node by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Nodes == nil {
						return nil, errNodesUnavailable
					}
					return deps.Nodes.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"nodesInBounds": &graphql.Field{
				Type:        graphql.NewList(nodeType),
				Description: "Topology nodes inside a bounding box",
				Args: graphql.FieldConfigArgument{
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 500},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Nodes == nil {
						return nil, errNodesUnavailable
					}
					b := domain.GeoBounds{
						SouthWest: domain.GeoPoint{Lat: p.Args["south"].(float64), Lng: p.Args["west"].(float64)},
						NorthEast: domain.GeoPoint{Lat: p.Args["north"].(float64), Lng: p.Args["east"].(float64)},
					}
					return deps.Nodes.InBounds(p.Context, b, p.Args["limit"].(int))
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"moveMap": &graphql.Field{
				Type:        viewportType,
				Description: "Move a session's map; the graph camera follows",
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"zoom": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					return deps.Sessions.MoveMap(p.Context, p.Args["id"].(string), center, p.Args["zoom"].(float64))
				},
			},
			"setCamera": &graphql.Field{
				Type:        viewportType,
				Description: "Move a session's graph camera; the map follows",
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"x":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"y":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"ratio": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"steps": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					state := domain.CameraState{
						X:     p.Args["x"].(float64),
						Y:     p.Args["y"].(float64),
						Ratio: p.Args["ratio"].(float64),
					}
					return deps.Sessions.SetCamera(p.Context, p.Args["id"].(string), state, p.Args["steps"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
