package flow

import "maps"

// DataType classifies the values a port accepts or produces.
type DataType string

// Port data types. TypeAny is compatible with every other type.
const (
	TypeAny     DataType = "any"
	TypeText    DataType = "text"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeObject  DataType = "object"
	TypeArray   DataType = "array"
)

// Compatible reports whether a value of type d may flow into a port of
// type other. TypeAny matches everything on either side.
func (d DataType) Compatible(other DataType) bool {
	return d == TypeAny || other == TypeAny || d == other
}

// Port is one typed connection point on a node. The port set of a node
// is frozen when the node is instantiated from its template; ports are
// never added, removed, or retyped afterwards.
type Port struct {
	Key      string   `json:"key" bson:"key"` // unique within its node+direction
	Label    string   `json:"label,omitempty" bson:"label,omitempty"`
	DataType DataType `json:"dataType" bson:"dataType"`
	Required bool     `json:"required,omitempty" bson:"required,omitempty"`
}

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a canvas extent.
type Size struct {
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// Default node extent used when none is supplied at creation or import.
const (
	DefaultNodeWidth  = 180
	DefaultNodeHeight = 80
)

// Node is one pipeline step. Only Position, LaneID, and Properties
// mutate after creation; everything else is frozen from the template.
type Node struct {
	ID         string         `json:"id" bson:"id"`
	TemplateID string         `json:"templateId" bson:"templateId"`
	Name       string         `json:"name" bson:"name"`
	Category   string         `json:"category,omitempty" bson:"category,omitempty"`
	LaneID     string         `json:"laneId,omitempty" bson:"laneId,omitempty"`
	Position   Position       `json:"position" bson:"position"`
	Size       Size           `json:"size" bson:"size"`
	Inputs     []Port         `json:"inputPorts" bson:"inputPorts"`
	Outputs    []Port         `json:"outputPorts" bson:"outputPorts"`
	Properties map[string]any `json:"properties,omitempty" bson:"properties,omitempty"`
}

// Input returns the input port with the given key.
func (n *Node) Input(key string) (Port, bool) { return findPort(n.Inputs, key) }

// Output returns the output port with the given key.
func (n *Node) Output(key string) (Port, bool) { return findPort(n.Outputs, key) }

func findPort(ports []Port, key string) (Port, bool) {
	for _, p := range ports {
		if p.Key == key {
			return p, true
		}
	}
	return Port{}, false
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Inputs = append([]Port(nil), n.Inputs...)
	c.Outputs = append([]Port(nil), n.Outputs...)
	if n.Properties != nil {
		c.Properties = maps.Clone(n.Properties)
	}
	return &c
}

// Wire is a directed data-flow edge from one node's output port to
// another node's input port. At most one wire may exist per
// (FromNode, FromPort, ToNode, ToPort) tuple.
type Wire struct {
	ID       string `json:"id" bson:"id"`
	FromNode string `json:"fromNodeId" bson:"fromNodeId"`
	FromPort string `json:"fromPortKey" bson:"fromPortKey"`
	ToNode   string `json:"toNodeId" bson:"toNodeId"`
	ToPort   string `json:"toPortKey" bson:"toPortKey"`
}

// SameTuple reports whether two wires connect the same endpoints.
func (w Wire) SameTuple(o Wire) bool {
	return w.FromNode == o.FromNode && w.FromPort == o.FromPort &&
		w.ToNode == o.ToNode && w.ToPort == o.ToPort
}

// Touches reports whether the wire references the given node on either end.
func (w Wire) Touches(nodeID string) bool {
	return w.FromNode == nodeID || w.ToNode == nodeID
}

// Clone returns a copy of the wire.
func (w *Wire) Clone() *Wire {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

// LaneType is the execution role a lane groups nodes under.
type LaneType string

const (
	LaneRules       LaneType = "rules"
	LaneLLM         LaneType = "llm"
	LanePassthrough LaneType = "passthrough"
	LaneDatabase    LaneType = "database"
)

// DefaultLaneHeight is used when a lane is created or imported without
// an explicit height.
const DefaultLaneHeight = 200

// Lane is a horizontal organizational grouping of nodes. A node outside
// any lane is still valid for execution. Order is the display index,
// recomputed deterministically after every structural lane change.
type Lane struct {
	ID        string   `json:"id" bson:"id"`
	Name      string   `json:"name" bson:"name"`
	Type      LaneType `json:"type" bson:"type"`
	Role      string   `json:"role,omitempty" bson:"role,omitempty"`
	Y         float64  `json:"y" bson:"y"`
	Height    float64  `json:"height" bson:"height"`
	Collapsed bool     `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	NodeIDs   []string `json:"nodeIds,omitempty" bson:"nodeIds,omitempty"`
	Order     int      `json:"order" bson:"order"`
}

// Clone returns a deep copy of the lane.
func (l *Lane) Clone() *Lane {
	if l == nil {
		return nil
	}
	c := *l
	c.NodeIDs = append([]string(nil), l.NodeIDs...)
	return &c
}
