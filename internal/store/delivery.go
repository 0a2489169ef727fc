package store

// WebhookDelivery is one queued outbound webhook attempt. The worker
// pulls due rows, posts the payload, and reports the outcome back.
type WebhookDelivery struct {
	ID             string
	TenantID       string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Status         string
	Attempts       int
}
