package storage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

type ExportData struct {
	Metadata RunMetadata `json:"metadata" msgpack:"metadata"`
	Frames   []FrameData `json:"frames" msgpack:"frames"`
	Merges   []MergeData `json:"merges" msgpack:"merges"`
}

type FrameData struct {
	Step   int        `json:"step" msgpack:"step"`
	Time   float64    `json:"time" msgpack:"time"`
	Bodies []BodyData `json:"bodies" msgpack:"bodies"`
}

type BodyData struct {
	ID       uint64     `json:"id" msgpack:"id"`
	Kind     string     `json:"kind" msgpack:"kind"`
	Mass     float64    `json:"mass" msgpack:"mass"`
	Radius   float64    `json:"radius" msgpack:"radius"`
	Position [3]float64 `json:"position" msgpack:"position"`
	Velocity [3]float64 `json:"velocity" msgpack:"velocity"`
}

type MergeData struct {
	Step     int     `json:"step" msgpack:"step"`
	Time     float64 `json:"time" msgpack:"time"`
	Absorber uint64  `json:"absorber" msgpack:"absorber"`
	Absorbed uint64  `json:"absorbed" msgpack:"absorbed"`
}

func NewExportData(meta RunMetadata, frames []sim.Frame, merges []sim.MergeRecord) ExportData {
	data := ExportData{
		Metadata: meta,
		Frames:   make([]FrameData, len(frames)),
		Merges:   make([]MergeData, len(merges)),
	}

	for i, fr := range frames {
		fd := FrameData{Step: fr.Step, Time: fr.Time, Bodies: make([]BodyData, len(fr.Bodies))}
		for j, b := range fr.Bodies {
			fd.Bodies[j] = bodyData(b)
		}
		data.Frames[i] = fd
	}
	for i, m := range merges {
		data.Merges[i] = MergeData{
			Step:     m.Step,
			Time:     m.Time,
			Absorber: uint64(m.Absorber),
			Absorbed: uint64(m.Absorbed),
		}
	}
	return data
}

func bodyData(b dynamo.Body) BodyData {
	return BodyData{
		ID:       uint64(b.ID),
		Kind:     b.Kind.String(),
		Mass:     b.Mass,
		Radius:   b.Radius,
		Position: b.Position,
		Velocity: b.Velocity,
	}
}

// Export loads everything stored for runID.
func (s *Store) Export(runID string) (ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return ExportData{}, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return ExportData{}, err
	}
	merges, err := s.LoadMerges(runID)
	if err != nil {
		return ExportData{}, err
	}
	return NewExportData(*meta, frames, merges), nil
}

func ExportJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportMsgpack(w io.Writer, data ExportData) error {
	return msgpack.NewEncoder(w).Encode(&data)
}

func ImportMsgpack(r io.Reader) (ExportData, error) {
	var data ExportData
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return ExportData{}, fmt.Errorf("decode msgpack export: %w", err)
	}
	return data, nil
}

// Export writes data in the named format, "json" or "msgpack".
func Export(w io.Writer, format string, data ExportData) error {
	switch format {
	case "json", "":
		return ExportJSON(w, data)
	case "msgpack":
		return ExportMsgpack(w, data)
	default:
		return fmt.Errorf("unknown export format %q (available: json, msgpack)", format)
	}
}
