package profile

import (
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"
	"github.com/segmentio/rntuple-go/compress"
)

// SchemaURL is the JSON schema of speedscope documents.
const SchemaURL = "https://www.speedscope.app/file-format-schema.json"

const (
	eventedType = "evented"
	bytesUnit   = "bytes"
)

// Document is a speedscope file holding one evented profile.
type Document struct {
	Schema             string           `json:"$schema"`
	Shared             SharedFrames     `json:"shared"`
	Profiles           []EventedProfile `json:"profiles"`
	Name               string           `json:"name,omitempty"`
	ActiveProfileIndex int              `json:"activeProfileIndex"`
	Exporter           string           `json:"exporter,omitempty"`
}

type SharedFrames struct {
	Frames []Frame `json:"frames"`
}

type EventedProfile struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	StartValue int64   `json:"startValue"`
	EndValue   int64   `json:"endValue"`
	Events     []Event `json:"events"`
}

// NewDocument wraps p in a speedscope document.
func NewDocument(p *Profile, options ...Option) *Document {
	config := DefaultConfig()
	config.Apply(options...)

	events := p.Events
	if events == nil {
		events = []Event{}
	}
	frames := p.Frames
	if frames == nil {
		frames = []Frame{}
	}

	return &Document{
		Schema: SchemaURL,
		Shared: SharedFrames{Frames: frames},
		Profiles: []EventedProfile{{
			Type:       eventedType,
			Name:       config.Name,
			Unit:       bytesUnit,
			StartValue: p.StartValue,
			EndValue:   p.EndValue,
			Events:     events,
		}},
		Name:     config.Name,
		Exporter: config.Exporter,
	}
}

// Profile returns the profile held by the document.
func (doc *Document) Profile() (*Profile, error) {
	if len(doc.Profiles) != 1 {
		return nil, fmt.Errorf("speedscope document has %d profiles, expected one", len(doc.Profiles))
	}
	ep := &doc.Profiles[0]
	if ep.Type != eventedType {
		return nil, fmt.Errorf("speedscope profile has type %q, expected %q", ep.Type, eventedType)
	}
	for i, e := range ep.Events {
		if e.Frame < 0 || e.Frame >= len(doc.Shared.Frames) {
			return nil, fmt.Errorf("event %d references frame %d which is not in the frame table of %d frames", i, e.Frame, len(doc.Shared.Frames))
		}
	}
	return &Profile{
		Frames:     doc.Shared.Frames,
		Events:     ep.Events,
		StartValue: ep.StartValue,
		EndValue:   ep.EndValue,
	}, nil
}

// WriteDocument writes doc to w, compressed with codec.
func WriteDocument(w io.Writer, doc *Document, codec compress.Codec) error {
	z, err := codec.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating %s writer: %w", codec, err)
	}
	if err := json.NewEncoder(z).Encode(doc); err != nil {
		z.Close()
		return fmt.Errorf("encoding speedscope document: %w", err)
	}
	return z.Close()
}

// ReadDocument reads a document compressed with codec from r.
func ReadDocument(r io.Reader, codec compress.Codec) (*Document, error) {
	z, err := codec.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating %s reader: %w", codec, err)
	}
	defer z.Close()

	doc := new(Document)
	if err := json.NewDecoder(z).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding speedscope document: %w", err)
	}
	return doc, nil
}
