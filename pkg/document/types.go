package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document is the portable form of a diagram.
type Document struct {
	Labels     []Label    `json:"labels"`
	Lines      []Line     `json:"lines"`
	Properties Properties `json:"properties"`
}

// Label describes one node.
//
// ID is optional in input: documents written before labels carried IDs
// identify a label by its position in the list.
type Label struct {
	ID              *int    `json:"id,omitempty"`
	HTML            string  `json:"html"`
	Left            Pixels  `json:"left"`
	Top             Pixels  `json:"top"`
	Width           float64 `json:"width,omitempty"`
	Height          float64 `json:"height,omitempty"`
	Color           string  `json:"color,omitempty"`
	Collapsed       bool    `json:"collapsed"`
	Visibility      string  `json:"visibility,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Title           bool    `json:"title"`
}

// LabelID returns the label's identifier, defaulting to index when the
// label has none.
func (l Label) LabelID(index int) int {
	if l.ID != nil {
		return *l.ID
	}
	return index
}

// Line describes one edge. The positions are the anchors computed at export
// time; they are informational and ignored on import.
type Line struct {
	From         Ref       `json:"from"`
	To           Ref       `json:"to"`
	FromPosition *Position `json:"fromPosition,omitempty"`
	ToPosition   *Position `json:"toPosition,omitempty"`
	Hidden       bool      `json:"hidden"`
	Color        string    `json:"color,omitempty"`
	Width        float64   `json:"width,omitempty"`
}

// Position is a point in diagram space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Properties are the diagram-wide settings.
type Properties struct {
	BodyBackgroundColor string `json:"bodyBackgroundColor,omitempty"`
}

// Pixels is a coordinate that decodes from a JSON number or from a CSS
// length string such as "120px". It always encodes as a number.
type Pixels float64

// MarshalJSON encodes p as a plain number.
func (p Pixels) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

// UnmarshalJSON accepts 120, 120.5, "120", "120px" and "120.5px".
func (p *Pixels) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "px")
		if s == "" {
			*p = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid pixel value %q", string(data))
		}
		*p = Pixels(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid pixel value %s", data)
	}
	*p = Pixels(v)
	return nil
}

// Ref is a line endpoint: either a label ID (a JSON number) or, in legacy
// documents, the text of the label (a JSON string). A JSON null decodes to
// a Ref with Null set, which never resolves.
type Ref struct {
	ID   int
	Text string
	ByID bool
	Null bool
}

// IDRef returns a reference to the label with the given ID.
func IDRef(id int) Ref { return Ref{ID: id, ByID: true} }

// TextRef returns a reference to the label with the given content.
func TextRef(text string) Ref { return Ref{Text: text} }

// Same reports whether two references are written identically.
func (r Ref) Same(o Ref) bool {
	if r.Null || o.Null {
		return false
	}
	if r.ByID != o.ByID {
		return false
	}
	if r.ByID {
		return r.ID == o.ID
	}
	return r.Text == o.Text
}

func (r Ref) String() string {
	if r.Null {
		return "null"
	}
	if r.ByID {
		return strconv.Itoa(r.ID)
	}
	return strconv.Quote(r.Text)
}

// MarshalJSON encodes an ID reference as a number and a text reference as a
// string.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Null {
		return []byte("null"), nil
	}
	if r.ByID {
		return json.Marshal(r.ID)
	}
	return json.Marshal(r.Text)
}

// UnmarshalJSON accepts an integer within the 32-bit range, a string or
// null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*r = Ref{Null: true}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = TextRef(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid endpoint %s", data)
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("invalid endpoint %s: not an integer", data)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return fmt.Errorf("invalid endpoint %s: out of range", data)
	}
	*r = IDRef(int(f))
	return nil
}
