package dtos

// WebhookReceivedResponse acknowledges a processor callback.
type WebhookReceivedResponse struct {
	Received bool `json:"received"`
}

type ConnectOnboardResponse struct {
	URL string `json:"url"`
}

type PortalResponse struct {
	URL string `json:"url"`
}
