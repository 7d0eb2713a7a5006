// Package telemetry fetches greenhouse sensor readings from the remote
// JSON endpoint and renders them as a console report.
package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Reading is one decoded sensor record. Every field is optional and untyped;
// numbers are kept as json.Number so they print exactly as the device sent them.
type Reading map[string]any

// Shape names the top-level layout a payload arrived in.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeEnvelope is an object carrying the readings under "items".
	ShapeEnvelope
	// ShapeSingle is a bare object holding one reading.
	ShapeSingle
	// ShapeList is a bare array of readings.
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeEnvelope:
		return "envelope"
	case ShapeSingle:
		return "single"
	case ShapeList:
		return "list"
	default:
		return "unknown"
	}
}

const itemsKey = "items"

// DecodePayload parses a response body into generic JSON values, keeping
// numbers as json.Number. Trailing data after the first value is an error.
func DecodePayload(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrDecode)
	}
	return payload, nil
}

// Normalize turns any of the accepted payload layouts into one canonical
// list of readings so the rest of the flow never re-checks the shape.
func Normalize(payload any) ([]Reading, Shape, error) {
	switch v := payload.(type) {
	case map[string]any:
		items, ok := v[itemsKey]
		if !ok {
			return []Reading{Reading(v)}, ShapeSingle, nil
		}
		if items == nil {
			return []Reading{}, ShapeEnvelope, nil
		}
		list, ok := items.([]any)
		if !ok {
			return nil, ShapeEnvelope, &FormatError{Kind: kindOf(items), Where: itemsKey}
		}
		readings, err := toReadings(list)
		return readings, ShapeEnvelope, err
	case []any:
		readings, err := toReadings(v)
		return readings, ShapeList, err
	default:
		return nil, ShapeUnknown, &FormatError{Kind: kindOf(payload)}
	}
}

func toReadings(list []any) ([]Reading, error) {
	readings := make([]Reading, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &FormatError{Kind: kindOf(item), Where: fmt.Sprintf("element %d", i)}
		}
		readings = append(readings, Reading(m))
	}
	return readings, nil
}

// kindOf names a decoded JSON value the way a person reading the log would.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
