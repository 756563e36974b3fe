package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment providers with configurable credentials
const (
	PaymentProviderPayPal = "paypal"
	PaymentProviderStripe = "stripe"
)

// PaymentConfig holds the admin-managed credentials and switches for a
// payment provider. One document per provider.
type PaymentConfig struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Provider string             `bson:"provider" json:"provider"`
	Enabled  bool               `bson:"enabled" json:"enabled"`

	// PayPal
	ClientID     string `bson:"client_id,omitempty" json:"clientId,omitempty"`
	ClientSecret string `bson:"client_secret,omitempty" json:"clientSecret,omitempty"`
	WebhookURL   string `bson:"webhook_url,omitempty" json:"webhookUrl,omitempty"`
	SandboxMode  bool   `bson:"sandbox_mode,omitempty" json:"sandboxMode,omitempty"`

	// Stripe
	PublishableKey string `bson:"publishable_key,omitempty" json:"publishableKey,omitempty"`
	SecretKey      string `bson:"secret_key,omitempty" json:"secretKey,omitempty"`
	WebhookSecret  string `bson:"webhook_secret,omitempty" json:"webhookSecret,omitempty"`

	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ValidPaymentProvider reports whether p is a supported provider.
func ValidPaymentProvider(p string) bool {
	return p == PaymentProviderPayPal || p == PaymentProviderStripe
}

// maskSecret hides all but the last four characters of a credential.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// Masked returns a copy safe to return from list endpoints: secrets are
// redacted, non-secret fields pass through.
func (c PaymentConfig) Masked() PaymentConfig {
	c.ClientSecret = maskSecret(c.ClientSecret)
	c.SecretKey = maskSecret(c.SecretKey)
	c.WebhookSecret = maskSecret(c.WebhookSecret)
	return c
}
