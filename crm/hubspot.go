package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/belong-inc/go-hubspot"
)

// ContactUpdater applies a set of property values to one CRM contact.
type ContactUpdater interface {
	UpdateContact(ctx context.Context, contactID string, properties map[string]string) error
}

// HubSpot talks to the HubSpot CRM v3 objects API.
type HubSpot struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHubSpot(baseURL, token string, timeout time.Duration) *HubSpot {
	return &HubSpot{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func (h *HubSpot) WithHTTPClient(c *http.Client) *HubSpot {
	h.httpClient = c
	return h
}

func (h *HubSpot) client() (*hubspot.Client, error) {
	base, err := url.Parse(h.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing HubSpot base url: %w", err)
	}
	return hubspot.NewClient(
		hubspot.SetPrivateAppToken(h.token),
		hubspot.WithBaseURL(base),
		hubspot.WithHTTPClient(h.httpClient),
	)
}

// UpdateContact sends one PATCH for all properties.
func (h *HubSpot) UpdateContact(ctx context.Context, contactID string, properties map[string]string) error {
	if h.token == "" {
		return errors.New("hubspot api key is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cli, err := h.client()
	if err != nil {
		return err
	}

	if _, err := cli.CRM.Contact.Update(contactID, properties); err != nil {
		var apiErr *hubspot.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return fmt.Errorf("HubSpot returned status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return fmt.Errorf("calling HubSpot: %w", err)
	}
	return nil
}
