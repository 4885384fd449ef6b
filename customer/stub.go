package customer

import (
	"context"
	"fmt"
	"strings"
)

// StubRepository synthesizes a demo profile for any non-empty id. It is used
// when no customer database is configured.
type StubRepository struct {
	AccountNumber string
}

func NewStubRepository() *StubRepository {
	return &StubRepository{AccountNumber: "428765091"}
}

func (r *StubRepository) Get(_ context.Context, customerID string) (*Customer, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: empty customer id", ErrNotFound)
	}

	return &Customer{
		CustomerID:        customerID,
		AccountNumber:     r.AccountNumber,
		FirstName:         "John",
		LastName:          "Johnson",
		Email:             "John.johnson@example.com",
		PhoneNumber:       "+1-702-555-1212",
		CustomerStartDate: "2022-06-10",
		YearsAsCustomer:   2,
		BillingAddress: Address{
			Street: "123 Main St",
			City:   "Anytown",
			State:  "CA",
			Zip:    "12345",
		},
		PurchaseHistory: []Purchase{
			{
				Date: "2023-03-05",
				Items: []LineItem{
					{ProductID: "vm-n1-111", Name: "N1 Standard Instance (2 vCPU)", Quantity: 1},
					{ProductID: "disk-222", Name: "Persistent Disk 100GB SSD", Quantity: 1},
				},
				TotalAmount: 125.40,
			},
			{
				Date: "2023-07-12",
				Items: []LineItem{
					{ProductID: "vm-c2-333", Name: "C2 High-CPU Instance (4 vCPU)", Quantity: 2},
					{ProductID: "ip-444", Name: "Static IP Address", Quantity: 2},
				},
				TotalAmount: 245.80,
			},
			{
				Date: "2024-01-20",
				Items: []LineItem{
					{ProductID: "vm-e2-555", Name: "E2 Standard Instance (8 vCPU)", Quantity: 1},
					{ProductID: "snapshot-666", Name: "Disk Snapshot Service", Quantity: 1},
				},
				TotalAmount: 320.15,
			},
		},
		LoyaltyPoints:  133,
		PreferredStore: "Anytown",
		CommunicationPreferences: CommunicationPreferences{
			Email:             true,
			SMS:               false,
			PushNotifications: true,
		},
		ScheduledAppointments: map[string]any{},
	}, nil
}
