// Package docio serializes documents to and from the versioned JSON
// envelope used for export, import, and the persisted store.
//
// Import is deliberately tolerant: unknown fields are ignored and
// missing optional fields take the same defaults the editor applies at
// creation time. A structurally broken envelope (missing version or
// canvas) aborts before anything is built, so a failed import never
// leaves a partially populated document behind.
package docio

import (
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"time"

	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

// Version is the envelope format version this package writes.
const Version = "1.0"

// Envelope is the on-wire document shape.
type Envelope struct {
	Version    string    `json:"version" bson:"version"`
	Name       string    `json:"name" bson:"name"`
	ExportedAt time.Time `json:"exportedAt" bson:"exportedAt"`
	Canvas     Canvas    `json:"canvas" bson:"canvas"`
	Settings   Settings  `json:"settings" bson:"settings"`
}

// Canvas carries the document's elements as flat lists.
type Canvas struct {
	Lanes []flow.Lane `json:"lanes" bson:"lanes"`
	Nodes []flow.Node `json:"nodes" bson:"nodes"`
	Wires []flow.Wire `json:"wires" bson:"wires"`
}

// Settings carries viewport state. It rides along in the envelope but
// the document model itself never reads it.
type Settings struct {
	Zoom   float64       `json:"zoom" bson:"zoom"`
	Offset flow.Position `json:"offset" bson:"offset"`
}

// DefaultSettings is used when an envelope omits settings.
func DefaultSettings() Settings {
	return Settings{Zoom: 1}
}

// Export flattens a document into an envelope stamped with the current
// time.
func Export(doc *flow.Document, settings Settings) *Envelope {
	env := &Envelope{
		Version:    Version,
		Name:       doc.Name,
		ExportedAt: time.Now().UTC(),
		Canvas: Canvas{
			Lanes: []flow.Lane{},
			Nodes: []flow.Node{},
			Wires: []flow.Wire{},
		},
		Settings: settings,
	}
	for _, l := range doc.Lanes() {
		env.Canvas.Lanes = append(env.Canvas.Lanes, *l.Clone())
	}
	for _, n := range doc.Nodes() {
		env.Canvas.Nodes = append(env.Canvas.Nodes, *n.Clone())
	}
	for _, w := range doc.Wires() {
		env.Canvas.Wires = append(env.Canvas.Wires, *w.Clone())
	}
	return env
}

// Write encodes an envelope as indented JSON.
func Write(w io.Writer, env *Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidFormat, err, "encode document")
	}
	return nil
}

// Read decodes and validates an envelope. Unknown JSON fields are
// ignored; a missing version or canvas key is a format error. Empty
// element lists are legitimate, so canvas presence is checked on the
// key itself rather than on the lists.
func Read(r io.Reader) (*Envelope, error) {
	var raw struct {
		Version    string    `json:"version"`
		Name       string    `json:"name"`
		ExportedAt time.Time `json:"exportedAt"`
		Canvas     *Canvas   `json:"canvas"`
		Settings   Settings  `json:"settings"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeInvalidFormat, err, "decode document")
	}
	if raw.Version == "" {
		return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "document envelope is missing a version")
	}
	if raw.Canvas == nil {
		return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "document envelope is missing a canvas")
	}
	return &Envelope{
		Version:    raw.Version,
		Name:       raw.Name,
		ExportedAt: raw.ExportedAt,
		Canvas:     *raw.Canvas,
		Settings:   raw.Settings,
	}, nil
}

var idSuffix = regexp.MustCompile(`-(\d+)$`)

// Import rebuilds a document from an envelope. Elements are restored
// verbatim, defaults fill missing optional fields, and the id counter
// is recomputed from the highest numeric id suffix so subsequent
// creations cannot collide with imported ids.
func Import(env *Envelope) (*flow.Document, error) {
	if err := flowerrors.ValidateDocumentName(env.Name); err != nil {
		return nil, err
	}

	doc := flow.New(env.Name)
	maxSuffix := 0
	bump := func(id string) {
		if m := idSuffix.FindStringSubmatch(id); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxSuffix {
				maxSuffix = n
			}
		}
	}

	for i := range env.Canvas.Lanes {
		lane := env.Canvas.Lanes[i].Clone()
		if lane.ID == "" {
			return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "lane without an id")
		}
		if lane.Height <= 0 {
			lane.Height = flow.DefaultLaneHeight
		}
		if lane.Type == "" {
			lane.Type = flow.LanePassthrough
		}
		doc.RestoreLane(lane)
		bump(lane.ID)
	}
	for i := range env.Canvas.Nodes {
		node := env.Canvas.Nodes[i].Clone()
		if node.ID == "" {
			return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "node without an id")
		}
		if node.Size.W <= 0 {
			node.Size.W = flow.DefaultNodeWidth
		}
		if node.Size.H <= 0 {
			node.Size.H = flow.DefaultNodeHeight
		}
		doc.RestoreNode(node)
		bump(node.ID)
	}
	for i := range env.Canvas.Wires {
		wire := env.Canvas.Wires[i].Clone()
		if wire.ID == "" {
			return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "wire without an id")
		}
		if _, ok := doc.Node(wire.FromNode); !ok {
			return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "wire %s references a missing node", wire.ID)
		}
		if _, ok := doc.Node(wire.ToNode); !ok {
			return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "wire %s references a missing node", wire.ID)
		}
		doc.RestoreWire(wire)
		bump(wire.ID)
	}

	doc.BumpCounter(maxSuffix)
	return doc, nil
}

// Marshal is Export followed by JSON encoding, for stores that persist
// documents as blobs.
func Marshal(doc *flow.Document, settings Settings) ([]byte, error) {
	data, err := json.Marshal(Export(doc, settings))
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeInvalidFormat, err, "encode document")
	}
	return data, nil
}

// Unmarshal is the blob counterpart of Read plus Import.
func Unmarshal(data []byte) (*flow.Document, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeInvalidFormat, err, "decode document")
	}
	if env.Version == "" {
		return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "document envelope is missing a version")
	}
	return Import(&env)
}
