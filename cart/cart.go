// Package cart estimates the monthly cost of the resources a customer has
// provisioned in a zone.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nexuslm/catalog"
)

// HoursPerMonth is the fixed average used to turn hourly prices into
// monthly ones.
const HoursPerMonth = 730

var ErrInvalidRequest = errors.New("invalid cart request")

type Item struct {
	ProductID   string        `json:"product_id"`
	Name        string        `json:"name"`
	Quantity    int           `json:"quantity"`
	MonthlyCost catalog.Money `json:"monthly_cost"`
}

// Summary holds the priced items. Subtotal is always the sum of the items'
// MonthlyCost.
type Summary struct {
	Items    []Item        `json:"items"`
	Subtotal catalog.Money `json:"subtotal"`
	// Skipped lists resources left out because no price was found.
	Skipped []string `json:"skipped,omitempty"`
}

func (s *Summary) add(item Item) {
	s.Items = append(s.Items, item)
	s.Subtotal += item.MonthlyCost
}

// Calculator builds cart summaries from the compute and billing catalogs.
type Calculator struct {
	compute catalog.Compute
	prices  catalog.PriceBook
	logger  zerolog.Logger
}

func NewCalculator(compute catalog.Compute, prices catalog.PriceBook) *Calculator {
	return &Calculator{
		compute: compute,
		prices:  prices,
		logger:  log.With().Str("component", "cart").Logger(),
	}
}

// Calculate prices every instance and disk in zone labelled with
// customerID. A resource type with no priced SKU is skipped with a warning;
// any other catalog error aborts the whole calculation.
func (c *Calculator) Calculate(ctx context.Context, customerID, zone string) (Summary, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Summary{}, fmt.Errorf("%w: customer id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(zone) == "" {
		return Summary{}, fmt.Errorf("%w: zone is required", ErrInvalidRequest)
	}

	c.logger.Info().Str("customer_id", customerID).Str("zone", zone).Msg("calculating cart")

	summary := Summary{Items: []Item{}}
	prices := &priceMemo{book: c.prices, region: catalog.RegionOf(zone), seen: make(map[string]catalog.Money)}

	if err := c.addInstances(ctx, &summary, prices, customerID, zone); err != nil {
		return Summary{}, err
	}
	if err := c.addDisks(ctx, &summary, prices, customerID, zone); err != nil {
		return Summary{}, err
	}

	c.logger.Info().
		Str("customer_id", customerID).
		Int("items", len(summary.Items)).
		Int("skipped", len(summary.Skipped)).
		Stringer("subtotal", summary.Subtotal).
		Msg("cart calculated")
	return summary, nil
}

func (c *Calculator) addInstances(ctx context.Context, s *Summary, prices *priceMemo, customerID, zone string) error {
	token := ""
	for {
		page, err := c.compute.ListInstances(ctx, zone, token)
		if err != nil {
			return fmt.Errorf("retrieving instances: %w", err)
		}
		for _, inst := range page.Items {
			if inst.Labels[catalog.CustomerLabel] != customerID {
				continue
			}
			hourly, err := prices.get(ctx, inst.MachineType)
			if errors.Is(err, catalog.ErrNoSKU) {
				c.skip(s, inst.Name, inst.MachineType, err)
				continue
			}
			if err != nil {
				return fmt.Errorf("pricing instance %s: %w", inst.Name, err)
			}
			s.add(Item{
				ProductID:   inst.MachineType,
				Name:        inst.Name,
				Quantity:    1,
				MonthlyCost: hourly.Times(HoursPerMonth),
			})
		}
		if page.NextPageToken == "" {
			return nil
		}
		token = page.NextPageToken
	}
}

func (c *Calculator) addDisks(ctx context.Context, s *Summary, prices *priceMemo, customerID, zone string) error {
	token := ""
	for {
		page, err := c.compute.ListDisks(ctx, zone, token)
		if err != nil {
			return fmt.Errorf("retrieving disks: %w", err)
		}
		for _, disk := range page.Items {
			if disk.Labels[catalog.CustomerLabel] != customerID {
				continue
			}
			perGB, err := prices.get(ctx, disk.Type)
			if errors.Is(err, catalog.ErrNoSKU) {
				c.skip(s, disk.Name, disk.Type, err)
				continue
			}
			if err != nil {
				return fmt.Errorf("pricing disk %s: %w", disk.Name, err)
			}
			s.add(Item{
				ProductID:   disk.Type,
				Name:        fmt.Sprintf("%s %dGB", disk.Type, disk.SizeGB),
				Quantity:    1,
				MonthlyCost: perGB.Times(disk.SizeGB),
			})
		}
		if page.NextPageToken == "" {
			return nil
		}
		token = page.NextPageToken
	}
}

func (c *Calculator) skip(s *Summary, name, resourceType string, err error) {
	c.logger.Warn().Err(err).Str("resource", name).Str("type", resourceType).Msg("no price found, skipping item")
	s.Skipped = append(s.Skipped, name)
}

// priceMemo prices each resource type once per calculation.
type priceMemo struct {
	book   catalog.PriceBook
	region string
	seen   map[string]catalog.Money
}

func (p *priceMemo) get(ctx context.Context, resourceType string) (catalog.Money, error) {
	if price, ok := p.seen[resourceType]; ok {
		return price, nil
	}
	price, err := p.book.UnitPrice(ctx, p.region, resourceType)
	if err != nil {
		return 0, err
	}
	p.seen[resourceType] = price
	return price, nil
}
