package domain

import (
	"time"
)

// TopologyNode is a network element placed on the map (an STO, a datacenter,
// a PoP). Location is required; everything else the dashboards attach (witel,
// platform, capacity, ...) lives in Attributes.
type TopologyNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Location   GeoPoint       `json:"location"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ProjectedNode is a topology node positioned in both camera systems.
type ProjectedNode struct {
	ID       string        `json:"id"`
	Label    string        `json:"label,omitempty"`
	Location GeoPoint      `json:"location"`
	Graph    GraphPoint    `json:"graph"`
	Viewport ViewportPoint `json:"viewport"`
	Visible  bool          `json:"visible"`
}

// MapView describes what the map currently displays.
type MapView struct {
	Center GeoPoint   `json:"center"`
	Zoom   float64    `json:"zoom"`
	Bounds GeoBounds  `json:"bounds"`
	Size   Dimensions `json:"size"`
}

// ViewportSnapshot is the state of one viewport session after an operation.
type ViewportSnapshot struct {
	SessionID  string          `json:"session_id"`
	State      string          `json:"state"`
	Map        MapView         `json:"map"`
	Camera     CameraState     `json:"camera"`
	Dimensions Dimensions      `json:"dimensions"`
	Drift      float64         `json:"drift_meters"`
	Nodes      []ProjectedNode `json:"nodes,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
