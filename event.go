package eventqueue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Props holds event properties. Values must be strings, numbers, booleans or nil.
//
// Decoded integers are int64 (uint64 above math.MaxInt64) and other numbers
// float64, so integer values survive a round trip through storage exactly.
type Props map[string]any

// UnmarshalJSON implements json.Unmarshaler.
func (p *Props) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil

		return nil
	}
	for key, value := range raw {
		if number, ok := value.(json.Number); ok {
			raw[key] = decodeNumber(number)
		}
	}
	*p = Props(raw)

	return nil
}

// decodeNumber keeps the literal as json.Number when it fits no Go numeric type.
func decodeNumber(number json.Number) any {
	if i, err := number.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(number.String(), 10, 64); err == nil {
		return u
	}
	if f, err := number.Float64(); err == nil {
		return f
	}

	return number
}

// Event is a named analytics occurrence sent to the collector.
type Event struct {
	// Name identifies the event (e.g., "Signup").
	Name string `json:"name"`
	// URL is the page or screen the event happened on.
	URL string `json:"url"`
	// Domain is the site the event is attributed to.
	Domain string `json:"domain"`
	// Props is optional. Nil props are omitted from the payload; empty props encode as {}.
	Props Props `json:"props"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name   string `json:"name"`
		URL    string `json:"url"`
		Domain string `json:"domain"`
		Props  *Props `json:"props,omitempty"`
	}

	out := wire{Name: e.Name, URL: e.URL, Domain: e.Domain}
	if e.Props != nil {
		out.Props = &e.Props
	}

	return json.Marshal(out)
}

// Delivery is a queued event together with the collector endpoint it is POSTed to.
type Delivery struct {
	Endpoint string `json:"endpoint"`
	Body     Event  `json:"body"`
}

// Validate checks required fields and property types.
func (e Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	for key, value := range e.Props {
		if !isPrimitive(value) {
			return fmt.Errorf("%w: %s", ErrInvalidProp, key)
		}
	}

	return nil
}

// Validate checks the endpoint and the event body.
func (d Delivery) Validate() error {
	if d.Endpoint == "" {
		return ErrEndpointRequired
	}
	parsed, err := url.Parse(d.Endpoint)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidEndpoint, d.Endpoint)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrInvalidEndpoint, d.Endpoint)
	}

	return d.Body.Validate()
}

func isPrimitive(value any) bool {
	switch v := value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case json.Number:
		return isNumberLiteral(v)
	default:
		return false
	}
}

func isNumberLiteral(number json.Number) bool {
	if number == "" || (number[0] != '-' && (number[0] < '0' || number[0] > '9')) {
		return false
	}

	return json.Valid([]byte(number))
}
