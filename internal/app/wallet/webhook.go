package wallet

import (
	"encoding/json"
	"strings"
)

// WebhookNotification is a provider webhook reduced to the two facts the
// reconciler cares about: which deposit, and whether the provider considers
// it paid. Everything else in the payload is provider noise.
type WebhookNotification struct {
	ExternalRef string
	Status      string
	Confirmed   bool
}

type webhookPayload struct {
	RequestBody     *webhookPayload `json:"requestBody"`
	Status          string          `json:"status"`
	ExternalID      string          `json:"external_id"`
	ExternalIDAlias string          `json:"externalId"`
	TxID            string          `json:"txid"`
}

// ParseWebhook normalizes the provider payload: the body may arrive wrapped in
// a requestBody envelope, and the correlation id travels under several names
// depending on provider and payload version.
func ParseWebhook(body []byte) (*WebhookNotification, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrInvalidArgument
	}
	if p.RequestBody != nil {
		p = *p.RequestBody
	}

	ref := p.ExternalID
	if ref == "" {
		ref = p.ExternalIDAlias
	}
	if ref == "" {
		ref = p.TxID
	}

	status := strings.ToUpper(strings.TrimSpace(p.Status))
	return &WebhookNotification{
		ExternalRef: ref,
		Status:      status,
		Confirmed:   isConfirmedStatus(status),
	}, nil
}

func isConfirmedStatus(status string) bool {
	switch status {
	case "PAID", "COMPLETED", "CONFIRMED":
		return true
	default:
		return false
	}
}
