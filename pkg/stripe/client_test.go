package stripe

import (
	"context"
	"testing"

	"github.com/ovenline/pizzeria-backend/pkg/config"
)

func TestNewClientValidatesEnvironmentAndKeys(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{"test key", config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_1", Env: "test"}, false},
		{"live key", config.StripeConfig{APIKey: "rk_live_123", Secret: "whsec_1", Env: "LIVE"}, false},
		{"missing key", config.StripeConfig{Secret: "whsec_1"}, true},
		{"restricted test key", config.StripeConfig{APIKey: "rk_test_123", Secret: "whsec_1"}, false},
		{"live key in test env", config.StripeConfig{APIKey: "sk_live_123", Secret: "whsec_1", Env: "test"}, true},
		{"unknown env", config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_1", Env: "staging"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tc.cfg, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.SigningSecret() != "whsec_1" {
				t.Fatalf("unexpected signing secret %q", client.SigningSecret())
			}
		})
	}
}

func TestNewClientAllowsMissingSigningSecret(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.SigningSecret() != "" || client.Environment() != "test" {
		t.Fatalf("unexpected client state env=%q secret=%q", client.Environment(), client.SigningSecret())
	}
}

func TestNilClientAccessors(t *testing.T) {
	var c *Client
	if c.API() != nil || c.Environment() != "" || c.SigningSecret() != "" {
		t.Fatal("expected zero values from nil client")
	}
}
