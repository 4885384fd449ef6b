// Package customer models customer profiles and the repositories that
// serve them. Profiles are owned by an external customer database; this
// package only reads them.
package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("customer not found")

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// Purchase is immutable once recorded.
type Purchase struct {
	Date        string     `json:"date"`
	Items       []LineItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
}

type CommunicationPreferences struct {
	Email             bool `json:"email"`
	SMS               bool `json:"sms"`
	PushNotifications bool `json:"push_notifications"`
}

// Customer is a read-only customer profile.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c" json:"-"`

	CustomerID               string                   `bun:"customer_id,pk" json:"customer_id"`
	AccountNumber            string                   `bun:"account_number" json:"account_number"`
	FirstName                string                   `bun:"first_name" json:"customer_first_name"`
	LastName                 string                   `bun:"last_name" json:"customer_last_name"`
	Email                    string                   `bun:"email" json:"email"`
	PhoneNumber              string                   `bun:"phone_number" json:"phone_number"`
	CustomerStartDate        string                   `bun:"customer_start_date" json:"customer_start_date"`
	YearsAsCustomer          int                      `bun:"years_as_customer" json:"years_as_customer"`
	BillingAddress           Address                  `bun:"billing_address,type:jsonb" json:"billing_address"`
	PurchaseHistory          []Purchase               `bun:"purchase_history,type:jsonb" json:"purchase_history"`
	LoyaltyPoints            int                      `bun:"loyalty_points" json:"loyalty_points"`
	PreferredStore           string                   `bun:"preferred_store" json:"preferred_store"`
	CommunicationPreferences CommunicationPreferences `bun:"communication_preferences,type:jsonb" json:"communication_preferences"`
	ScheduledAppointments    map[string]any           `bun:"scheduled_appointments,type:jsonb" json:"scheduled_appointments"`
}

// FullName returns "First Last".
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// JSON renders the profile for inclusion in the agent's instructions.
func (c *Customer) JSON() (string, error) {
	b, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshaling customer %s: %w", c.CustomerID, err)
	}
	return string(b), nil
}

// Repository looks customers up by identifier. Implementations return an
// error wrapping ErrNotFound for unknown ids.
type Repository interface {
	Get(ctx context.Context, customerID string) (*Customer, error)
}
