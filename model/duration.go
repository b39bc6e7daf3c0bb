package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Millis is a duration whose wire form is a number of milliseconds. Strings
// such as "1.5s" are accepted on input.
type Millis time.Duration

// ParseMillis converts numbers (milliseconds), numeric strings, Go duration
// strings and time.Duration values into a duration.
func ParseMillis(value interface{}) (time.Duration, error) {
	switch actual := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return actual, nil
	case int:
		return time.Duration(actual) * time.Millisecond, nil
	case int64:
		return time.Duration(actual) * time.Millisecond, nil
	case uint64:
		return time.Duration(actual) * time.Millisecond, nil
	case float64:
		return time.Duration(actual * float64(time.Millisecond)), nil
	case json.Number:
		return ParseMillis(actual.String())
	case string:
		text := strings.TrimSpace(actual)
		if text == "" {
			return 0, nil
		}
		if ms, err := strconv.ParseFloat(text, 64); err == nil {
			return ParseMillis(ms)
		}
		ret, err := time.ParseDuration(text)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: expected milliseconds or a duration string", actual)
		}
		return ret, nil
	}
	return 0, fmt.Errorf("invalid duration %v (%T)", value, value)
}

func (m Millis) milliseconds() interface{} {
	d := time.Duration(m)
	if d%time.Millisecond == 0 {
		return d.Milliseconds()
	}
	return float64(d) / float64(time.Millisecond)
}

// MarshalJSON encodes the duration as milliseconds.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.milliseconds())
}

// UnmarshalJSON decodes milliseconds or a duration string.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var raw interface{}
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	d, err := ParseMillis(raw)
	if err != nil {
		return err
	}
	*m = Millis(d)
	return nil
}

// MarshalYAML encodes the duration as milliseconds.
func (m Millis) MarshalYAML() (interface{}, error) {
	return m.milliseconds(), nil
}

// UnmarshalYAML decodes milliseconds or a duration string.
func (m *Millis) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	d, err := ParseMillis(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = Millis(d)
	return nil
}
