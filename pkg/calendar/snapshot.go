package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

const SnapshotVersion = 1

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrValidation = errors.New("cannot parse calendar from provided data")

// Snapshot is the persisted form of a calendar.
type Snapshot struct {
	Version      int            `json:"version"`
	DefaultLabel string         `json:"defaultLabel"`
	ViewDate     string         `json:"viewDate"`
	Marks        []SnapshotMark `json:"marks"`
}

type SnapshotMark struct {
	Timestamp int64   `json:"timestamp"`
	Label     string  `json:"label"`
	Reason    *string `json:"reason,omitempty"`
}

func (c *Calendar) ToJSON() Snapshot {
	marks := make([]Mark, 0, len(c.marks))
	for _, mark := range c.marks {
		marks = append(marks, mark)
	}
	sortMarks(marks)

	serialized := make([]SnapshotMark, 0, len(marks))
	for _, mark := range marks {
		serialized = append(serialized, SnapshotMark{
			Timestamp: mark.Timestamp(),
			Label:     mark.Label,
			Reason:    mark.Reason,
		})
	}

	return Snapshot{
		Version:      SnapshotVersion,
		DefaultLabel: c.defaultLabel,
		ViewDate:     c.viewDate.UTC().Format(isoLayout),
		Marks:        serialized,
	}
}

func (c *Calendar) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToJSON())
}

func (c *Calendar) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	if c.clock != nil {
		parsed.clock = c.clock
	}
	*c = *parsed
	return nil
}

// FromJSON rebuilds a calendar from its serialized form. data may be JSON text
// (string, []byte, json.RawMessage), an already decoded JSON value, or any
// value that marshals to the snapshot layout. Every failure wraps ErrValidation.
func FromJSON(data any) (*Calendar, error) {
	value, err := decodeGeneric(data)
	if err != nil {
		return nil, err
	}
	snapshot, err := validateSnapshot(value)
	if err != nil {
		return nil, err
	}

	cal := NewCalendar(&Config{DefaultLabel: snapshot.defaultLabel})
	cal.viewDate = normalizeDate(snapshot.viewDate)
	for _, m := range snapshot.marks {
		ts, ok := timestampMillis(m.timestamp)
		if !ok {
			continue
		}
		cal.marks[ts] = Mark{Date: time.UnixMilli(ts), Label: m.label, Reason: m.reason}
	}
	return cal, nil
}

// Revive returns value unchanged when it is already a live calendar (a
// Calendar value is returned by address) and otherwise tries FromJSON,
// answering nil instead of an error.
func Revive(value any) *Calendar {
	switch v := value.(type) {
	case *Calendar:
		return v
	case Calendar:
		if v.marks == nil {
			return nil
		}
		return &v
	}
	cal, err := FromJSON(value)
	if err != nil {
		return nil
	}
	return cal
}

func decodeGeneric(data any) (any, error) {
	var raw []byte
	switch v := data.(type) {
	case nil:
		return nil, fmt.Errorf("%w: no data", ErrValidation)
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	case map[string]any:
		return v, nil
	case Snapshot:
		return decodeSnapshot(v)
	case *Snapshot:
		if v == nil {
			return nil, fmt.Errorf("%w: no data", ErrValidation)
		}
		return decodeSnapshot(*v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		raw = encoded
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return value, nil
}

// decodeSnapshot treats nil Marks as no marks, as ToJSON never emits null.
func decodeSnapshot(s Snapshot) (any, error) {
	if s.Marks == nil {
		s.Marks = []SnapshotMark{}
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return decodeGeneric(json.RawMessage(encoded))
}

type validatedSnapshot struct {
	defaultLabel string
	viewDate     time.Time
	marks        []validatedMark
}

type validatedMark struct {
	timestamp float64
	label     string
	reason    *string
}

func validateSnapshot(value any) (validatedSnapshot, error) {
	record, ok := value.(map[string]any)
	if !ok {
		return validatedSnapshot{}, fmt.Errorf("%w: expected an object, got %T", ErrValidation, value)
	}

	var result validatedSnapshot

	viewDateText, ok := record["viewDate"].(string)
	if !ok {
		return validatedSnapshot{}, fmt.Errorf("%w: viewDate must be a string", ErrValidation)
	}
	viewDate, err := parseISODate(viewDateText)
	if err != nil {
		return validatedSnapshot{}, fmt.Errorf("%w: invalid viewDate %q", ErrValidation, viewDateText)
	}
	result.viewDate = viewDate

	if rawLabel, present := record["defaultLabel"]; present {
		label, ok := rawLabel.(string)
		if !ok {
			return validatedSnapshot{}, fmt.Errorf("%w: defaultLabel must be a string", ErrValidation)
		}
		result.defaultLabel = label
	}

	rawMarks, present := record["marks"]
	if !present {
		return result, nil
	}
	entries, ok := rawMarks.([]any)
	if !ok {
		return validatedSnapshot{}, fmt.Errorf("%w: marks must be an array", ErrValidation)
	}
	for i, entry := range entries {
		mark, err := validateMark(entry)
		if err != nil {
			return validatedSnapshot{}, fmt.Errorf("%w: marks[%d]: %v", ErrValidation, i, err)
		}
		result.marks = append(result.marks, mark)
	}
	return result, nil
}

func validateMark(value any) (validatedMark, error) {
	record, ok := value.(map[string]any)
	if !ok {
		return validatedMark{}, fmt.Errorf("expected an object, got %T", value)
	}
	timestamp, ok := asNumber(record["timestamp"])
	if !ok {
		return validatedMark{}, errors.New("timestamp must be a number")
	}
	label, ok := record["label"].(string)
	if !ok {
		return validatedMark{}, errors.New("label must be a string")
	}
	mark := validatedMark{timestamp: timestamp, label: label}
	if rawReason, present := record["reason"]; present {
		reason, ok := rawReason.(string)
		if !ok {
			return validatedMark{}, errors.New("reason must be a string")
		}
		mark.reason = &reason
	}
	return mark, nil
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// timestampMillis converts a serialized timestamp into whole milliseconds,
// reporting false for values that are not a representable instant.
func timestampMillis(value float64) (int64, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	truncated := math.Trunc(value)
	if math.Abs(truncated) > maxTimestampMillis {
		return 0, false
	}
	return int64(truncated), true
}

func parseISODate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}

var _ json.Marshaler = (*Calendar)(nil)
var _ json.Unmarshaler = (*Calendar)(nil)
