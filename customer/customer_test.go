package customer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"
)

func TestStubRepositoryGet(t *testing.T) {
	t.Parallel()

	repo := NewStubRepository()
	c, err := repo.Get(context.Background(), "123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if c.CustomerID != "123" {
		t.Fatalf("CustomerID = %q, want 123", c.CustomerID)
	}
	if c.FullName() != "John Johnson" {
		t.Fatalf("FullName() = %q", c.FullName())
	}
	if len(c.PurchaseHistory) != 3 {
		t.Fatalf("purchase history length = %d, want 3", len(c.PurchaseHistory))
	}
	if c.CommunicationPreferences.SMS {
		t.Fatal("stub profile must opt out of sms")
	}
}

func TestStubRepositoryEmptyID(t *testing.T) {
	t.Parallel()

	_, err := NewStubRepository().Get(context.Background(), "  ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestCustomerJSON(t *testing.T) {
	t.Parallel()

	c, _ := NewStubRepository().Get(context.Background(), "abc")
	out, err := c.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["customer_id"] != "abc" {
		t.Fatalf("customer_id = %v", decoded["customer_id"])
	}
	if decoded["customer_first_name"] != "John" {
		t.Fatalf("customer_first_name = %v", decoded["customer_first_name"])
	}
	if _, ok := decoded["billing_address"].(map[string]any); !ok {
		t.Fatalf("billing_address missing: %v", decoded)
	}
}

func TestBunRepositoryAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("NEXUSLM_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("NEXUSLM_TEST_DATABASE_DSN not set")
	}

	repo, err := OpenPostgres(dsn, 5*time.Second)
	if err != nil {
		t.Fatalf("OpenPostgres() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	if _, err := repo.db.NewCreateTable().Model((*Customer)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}
	want, _ := NewStubRepository().Get(ctx, "bun-test-1")
	if _, err := repo.db.NewInsert().Model(want).On("CONFLICT (customer_id) DO NOTHING").Exec(ctx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(ctx, "bun-test-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != want.Email || got.BillingAddress != want.BillingAddress {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}

	_, err = repo.Get(ctx, "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}
