// Package export emits the canonical route/meter/subscriber/value documents
// consumed by the meter-reading field devices.
package export

import (
	"bytes"
	"encoding/json"
	"io"
)

// RouteDocument is one reading route with its meters. Field order defines
// the key order of the serialized document.
type RouteDocument struct {
	Route string  `json:"route"`
	Meter []Meter `json:"meter"`
}

type Meter struct {
	ID         int     `json:"id"`
	Energytype string  `json:"energytype"`
	Number     string  `json:"number"`
	Hint       string  `json:"hint"`
	Address    string  `json:"address"`
	Subscriber string  `json:"subscriber"`
	Value      []Value `json:"value"`
}

// Value is one expected reading. Old, Min and Max stay explicit nulls when
// unknown; the field devices distinguish null from zero.
type Value struct {
	ID  int      `json:"id"`
	Old *float64 `json:"old"`
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Marshal renders the canonical form: UTF-8 verbatim (no ASCII escaping),
// four-space indentation, declared key order. Output ends with a newline.
func Marshal(doc *RouteDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Write(w io.Writer, doc *RouteDocument) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(doc)
}

// Load parses a previously exported document.
func Load(data []byte) (*RouteDocument, error) {
	var doc RouteDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
