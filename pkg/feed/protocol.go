package feed

import (
	"encoding/json"
	"fmt"

	"github.com/psilLang/island/pkg/island"
)

const (
	MsgFrame = "frame"
	MsgStats = "stats"
)

// Glyph strings used in Frame.Cells besides species names.
const (
	CellLush  = "plants"
	CellEmpty = ""
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}

// Frame is one render snapshot. Cells are row-major; each holds a species
// name, CellLush or CellEmpty.
type Frame struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Cells  []string `json:"cells"`
}

type Stats struct {
	Sweep   uint64         `json:"sweep"`
	Animals int            `json:"animals"`
	Plants  float64        `json:"plants"`
	Species map[string]int `json:"species"`
}

func FrameFrom(f island.Frame) Frame {
	out := Frame{Width: f.Width, Height: f.Height, Cells: make([]string, len(f.Glyphs))}
	for i, g := range f.Glyphs {
		switch {
		case g.Animal:
			out.Cells[i] = g.Kind.String()
		case g.Lush:
			out.Cells[i] = CellLush
		}
	}
	return out
}

func StatsFrom(s island.Stats) Stats {
	return Stats{Sweep: s.Sweep, Animals: s.Animals, Plants: s.Plants, Species: s.Species}
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	if payload == nil {
		return nil, fmt.Errorf("encode %s: nil payload", t)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{T: t, P: pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}
