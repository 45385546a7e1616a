package eventqueue

import (
	"encoding/json"
	"fmt"
)

func encodeQueue(deliveries []Delivery) (string, error) {
	if deliveries == nil {
		deliveries = []Delivery{}
	}
	data, err := json.Marshal(deliveries)
	if err != nil {
		return "", fmt.Errorf("eventqueue: encode queue failed: %w", err)
	}

	return string(data), nil
}

// decodeQueue never fails: anything that is not a JSON array of deliveries reads as empty.
func decodeQueue(raw string) []Delivery {
	if raw == "" {
		return []Delivery{}
	}

	var deliveries []Delivery
	if err := json.Unmarshal([]byte(raw), &deliveries); err != nil || deliveries == nil {
		return []Delivery{}
	}

	return deliveries
}
