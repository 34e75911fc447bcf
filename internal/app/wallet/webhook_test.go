package wallet

import (
	"errors"
	"testing"
)

func TestParseWebhookExternalRefAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "external_id", body: `{"status":"PAID","external_id":"abc"}`, want: "abc"},
		{name: "externalId", body: `{"status":"PAID","externalId":"abc"}`, want: "abc"},
		{name: "txid", body: `{"status":"PAID","txid":"abc"}`, want: "abc"},
		{name: "external_id wins over txid", body: `{"status":"PAID","external_id":"abc","txid":"other"}`, want: "abc"},
		{name: "requestBody envelope", body: `{"requestBody":{"status":"PAID","external_id":"abc"}}`, want: "abc"},
		{name: "absent", body: `{"status":"PAID"}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseWebhook([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseWebhook: %v", err)
			}
			if n.ExternalRef != tt.want {
				t.Fatalf("ExternalRef = %q, want %q", n.ExternalRef, tt.want)
			}
		})
	}
}

func TestParseWebhookStatusNormalization(t *testing.T) {
	tests := []struct {
		status    string
		confirmed bool
	}{
		{"PAID", true},
		{"paid", true},
		{" completed ", true},
		{"CONFIRMED", true},
		{"PENDING", false},
		{"CREATED", false},
		{"REFUNDED", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			n, err := ParseWebhook([]byte(`{"status":"` + tt.status + `","external_id":"abc"}`))
			if err != nil {
				t.Fatalf("ParseWebhook: %v", err)
			}
			if n.Confirmed != tt.confirmed {
				t.Fatalf("Confirmed = %v, want %v", n.Confirmed, tt.confirmed)
			}
		})
	}
}

func TestParseWebhookMalformed(t *testing.T) {
	_, err := ParseWebhook([]byte(`{"status":`))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}
