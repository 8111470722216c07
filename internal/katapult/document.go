package katapult

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/jointuse/polecompare/internal/model"
)

// Document is the subset of a Katapult Pro job export the engine reads.
type Document struct {
	Nodes       map[string]Node       `json:"nodes"`
	Connections map[string]Connection `json:"connections"`
}

// Node is one mapped point feature (pole, anchor, service location, ...).
type Node struct {
	Attributes Attributes `json:"attributes"`
}

// Attributes is the per-node attribute bag.
type Attributes map[string]AttrValue

// Connection is a span linking two nodes, carrying attachment-bearing
// sections keyed by section id.
type Connection struct {
	NodeID1    string                     `json:"node_id_1"`
	NodeID2    string                     `json:"node_id_2"`
	Sections   map[string]json.RawMessage `json:"sections"`
	Attributes Attributes                 `json:"attributes"`
}

// Parse decodes a Katapult job document. A document without nodes is
// structurally invalid and fatal.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(model.ErrMalformedDocument, err.Error())
	}
	if doc.Nodes == nil {
		return nil, eris.Wrap(model.ErrMalformedDocument, "katapult: nodes absent")
	}
	return &doc, nil
}

// sectionIndex maps each section id to its owning connection, so a service
// location's measured_attachments can be resolved back to a pole.
func (d *Document) sectionIndex() map[string]*Connection {
	idx := make(map[string]*Connection)
	for id := range d.Connections {
		conn := d.Connections[id]
		for sid := range conn.Sections {
			idx[sid] = &conn
		}
	}
	return idx
}
