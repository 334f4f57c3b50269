// Package webhook receives change notifications and drives the feed walk
// and processing pipeline for each referenced subscription.
package webhook

// Notification is one entry in an inbound webhook delivery.
type Notification struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	ClientState    string `json:"clientState"`
	Resource       string `json:"resource"`
}

// Payload is the body of an inbound webhook delivery. One delivery may
// batch notifications for several subscriptions. An empty batch is
// valid and acknowledged without any processing.
type Payload struct {
	Value []Notification `json:"value" validate:"dive"`
}
