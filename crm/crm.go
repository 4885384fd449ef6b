// Package crm pushes customer detail updates to the CRM. Every update must
// be confirmed by the caller; unconfirmed requests never leave the process.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

type UpdateRequest struct {
	CustomerID string         `json:"customer_id"`
	Details    map[string]any `json:"details"`
}

type Updater struct {
	contacts ContactUpdater
	logger   zerolog.Logger
}

func NewUpdater(contacts ContactUpdater) *Updater {
	return &Updater{
		contacts: contacts,
		logger:   log.With().Str("component", "crm").Logger(),
	}
}

// Update applies req when confirmed is true. Updates are not retried: field
// updates may not be idempotent.
func (u *Updater) Update(ctx context.Context, req UpdateRequest, confirmed bool) Result {
	customerID := strings.TrimSpace(req.CustomerID)
	if !confirmed {
		u.logger.Info().Str("customer_id", customerID).Msg("update not confirmed, skipping")
		return Result{Status: StatusCancelled, Message: "Update cancelled by user"}
	}
	if customerID == "" {
		return Result{Status: StatusError, Message: "customer_id is required"}
	}
	if len(req.Details) == 0 {
		return Result{Status: StatusError, Message: "details must contain at least one field"}
	}

	props, err := Properties(req.Details)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	u.logger.Info().Str("customer_id", customerID).Strs("fields", sortedKeys(props)).Msg("updating CRM contact")
	if err := u.contacts.UpdateContact(ctx, customerID, props); err != nil {
		u.logger.Error().Err(err).Str("customer_id", customerID).Msg("CRM update failed")
		return Result{Status: StatusError, Message: fmt.Sprintf("Failed to update HubSpot: %v", err)}
	}
	return Result{Status: StatusSuccess, Message: "HubSpot record updated."}
}

// Properties flattens detail values to the string form CRM properties take.
// Lists become semicolon separated, as HubSpot expects for multi-selects.
func Properties(details map[string]any) (map[string]string, error) {
	props := make(map[string]string, len(details))
	for key, value := range details {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("details contain an empty field name")
		}
		s, err := propertyValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		props[key] = s
	}
	return props, nil
}

func propertyValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			s, err := propertyValue(el)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ";"), nil
	case []string:
		return strings.Join(t, ";"), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("unsupported value %T", v)
		}
		return string(b), nil
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
