package eventqueue

// endpointGroup is the set of deliveries sharing one endpoint, in enqueue order.
type endpointGroup struct {
	endpoint   string
	deliveries []Delivery
}

// groupByEndpoint groups deliveries by endpoint, keeping endpoints in first-seen order.
func groupByEndpoint(deliveries []Delivery) []endpointGroup {
	index := make(map[string]int)
	groups := make([]endpointGroup, 0)
	for _, delivery := range deliveries {
		i, ok := index[delivery.Endpoint]
		if !ok {
			i = len(groups)
			index[delivery.Endpoint] = i
			groups = append(groups, endpointGroup{endpoint: delivery.Endpoint})
		}
		groups[i].deliveries = append(groups[i].deliveries, delivery)
	}

	return groups
}

func (g endpointGroup) bodies() []Event {
	bodies := make([]Event, len(g.deliveries))
	for i, delivery := range g.deliveries {
		bodies[i] = delivery.Body
	}

	return bodies
}
