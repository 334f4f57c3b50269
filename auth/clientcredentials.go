package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentialsConfig configures an OAuth2 client-credentials acquirer.
type ClientCredentialsConfig struct {
	TokenURL     string        `yaml:"token_url" mapstructure:"token_url"`
	ClientID     string        `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string        `yaml:"client_secret" mapstructure:"client_secret"`
	Scope        string        `yaml:"scope" mapstructure:"scope"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *ClientCredentialsConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *ClientCredentialsConfig) Validate() error {
	if c.TokenURL == "" {
		return fmt.Errorf("auth.token_url is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("auth.client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("auth.client_secret is required")
	}
	return nil
}

// NewClientCredentialsAcquirer returns an Acquirer performing the OAuth2
// client-credentials grant against cfg.TokenURL. Each call issues a fresh
// grant; reuse and persistence of the token are the Cache's concern.
func NewClientCredentialsAcquirer(cfg ClientCredentialsConfig) Acquirer {
	cfg.ApplyDefaults()
	grant := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	if cfg.Scope != "" {
		grant.Scopes = []string{cfg.Scope}
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	return func(ctx context.Context) (string, error) {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		token, err := grant.Token(ctx)
		if err != nil {
			return "", fmt.Errorf("auth: acquire token: %w", err)
		}
		if token.AccessToken == "" {
			return "", fmt.Errorf("auth: token endpoint returned no access token")
		}
		return token.AccessToken, nil
	}
}
