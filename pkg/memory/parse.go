package memory

import (
	"bytes"
	"encoding/json"
	"strings"
)

// operationItem is one validated element of a reconciler response. ID is
// the positional id the model echoed back, possibly empty for ADD.
type operationItem struct {
	ID        string
	Text      string
	Event     Event
	OldMemory string
}

type rawOperationItem struct {
	ID        json.RawMessage `json:"id"`
	Text      *string         `json:"text"`
	Event     *string         `json:"event"`
	OldMemory *string         `json:"old_memory"`
}

// parseOperations accepts {"memory": [item...]} or a bare [item...],
// optionally wrapped in a fenced code block. Every failure is a *ParseError.
func parseOperations(text string) ([]operationItem, error) {
	body := []byte(extractJSON(text))

	var top any
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, &ParseError{Kind: ParseInvalidJSON, Index: -1, Err: err}
	}

	var raw []json.RawMessage
	switch v := top.(type) {
	case []any:
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &ParseError{Kind: ParseInvalidJSON, Index: -1, Err: err}
		}
	case map[string]any:
		if _, ok := v["memory"].([]any); !ok {
			return nil, &ParseError{Kind: ParseUnexpectedShape, Index: -1, Msg: `object without a "memory" array`}
		}
		var wrapped struct {
			Memory []json.RawMessage `json:"memory"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, &ParseError{Kind: ParseInvalidJSON, Index: -1, Err: err}
		}
		raw = wrapped.Memory
	default:
		return nil, &ParseError{Kind: ParseUnexpectedShape, Index: -1, Msg: "expected an object or array"}
	}

	items := make([]operationItem, 0, len(raw))
	for i, r := range raw {
		item, err := parseOperationItem(r)
		if err != nil {
			err.Index = i
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseOperationItem(data json.RawMessage) (operationItem, *ParseError) {
	invalid := func(msg string, err error) *ParseError {
		return &ParseError{Kind: ParseInvalidItem, Msg: msg, Err: err}
	}

	var raw rawOperationItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return operationItem{}, invalid("not an object", err)
	}

	if raw.Event == nil {
		return operationItem{}, invalid("missing event", nil)
	}
	event, ok := ParseEvent(*raw.Event)
	if !ok {
		return operationItem{}, invalid("unknown event "+*raw.Event, nil)
	}

	id, err := parseItemID(raw.ID)
	if err != nil {
		return operationItem{}, invalid("id must be a string or number", err)
	}

	item := operationItem{ID: id, Event: event}
	if raw.Text != nil {
		item.Text = strings.TrimSpace(*raw.Text)
	}
	if raw.OldMemory != nil {
		item.OldMemory = *raw.OldMemory
	}

	switch event {
	case EventAdd, EventUpdate:
		if item.Text == "" {
			return operationItem{}, invalid(string(event)+" without text", nil)
		}
	}
	switch event {
	case EventUpdate, EventDelete:
		if item.ID == "" {
			return operationItem{}, invalid(string(event)+" without id", nil)
		}
	}

	return item, nil
}

// parseItemID accepts "3", 3 or an absent id.
func parseItemID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
