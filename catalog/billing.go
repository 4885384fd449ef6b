package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"google.golang.org/api/cloudbilling/v1"
)

// ComputeEngineService is the Cloud Billing catalog id of Compute Engine.
const ComputeEngineService = "services/6F81-5844-456A"

var errPriceFound = errors.New("price found")

// GCPBilling prices resource types from the public Cloud Billing catalog.
type GCPBilling struct {
	svc     *cloudbilling.APIService
	service string
	region  string
	timeout time.Duration
}

// NewGCPBilling prices SKUs offered in region when a lookup names no region
// of its own. An empty region accepts SKUs from any region.
func NewGCPBilling(svc *cloudbilling.APIService, region string, timeout time.Duration) *GCPBilling {
	return &GCPBilling{
		svc:     svc,
		service: ComputeEngineService,
		region:  region,
		timeout: timeout,
	}
}

// UnitPrice walks the SKU listing until it finds a priced SKU offered in
// region whose description names resourceType. It returns ErrNoSKU when
// none does.
func (b *GCPBilling) UnitPrice(ctx context.Context, region, resourceType string) (Money, error) {
	if strings.TrimSpace(resourceType) == "" {
		return 0, fmt.Errorf("%w: empty resource type", ErrNoSKU)
	}
	if region == "" {
		region = b.region
	}
	ctx, cancel := withTimeout(ctx, b.timeout)
	defer cancel()

	var price Money
	call := b.svc.Services.Skus.List(b.service).CurrencyCode("USD").Context(ctx)
	err := call.Pages(ctx, func(resp *cloudbilling.ListSkusResponse) error {
		for _, sku := range resp.Skus {
			if !skuMatches(sku, resourceType, region) {
				continue
			}
			if p, ok := skuUnitPrice(sku); ok {
				price = p
				return errPriceFound
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errPriceFound):
		return price, nil
	case err != nil:
		return 0, fmt.Errorf("listing skus for %s: %w", resourceType, err)
	default:
		return 0, fmt.Errorf("%w: %s", ErrNoSKU, resourceType)
	}
}

func skuMatches(sku *cloudbilling.Sku, resourceType, region string) bool {
	if sku == nil {
		return false
	}
	if region != "" && len(sku.ServiceRegions) > 0 &&
		!slices.Contains(sku.ServiceRegions, region) && !slices.Contains(sku.ServiceRegions, "global") {
		return false
	}

	return containsTokens(descriptionTokens(sku.Description), descriptionTokens(resourceType))
}

// descriptionTokens splits text into lower-cased words. Hyphens separate
// words, so "n1-standard-1" and "N1 Standard 1" tokenize alike.
func descriptionTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsTokens reports whether want occurs as a contiguous run of whole
// tokens in have.
func containsTokens(have, want []string) bool {
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(have); i++ {
		if slices.Equal(have[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

// skuUnitPrice reads the first tiered rate of the first pricing info,
// checking every level for presence.
func skuUnitPrice(sku *cloudbilling.Sku) (Money, bool) {
	if len(sku.PricingInfo) == 0 || sku.PricingInfo[0] == nil {
		return 0, false
	}
	expr := sku.PricingInfo[0].PricingExpression
	if expr == nil || len(expr.TieredRates) == 0 {
		return 0, false
	}
	rate := expr.TieredRates[0]
	if rate == nil || rate.UnitPrice == nil {
		return 0, false
	}
	return FromUnitsNanos(rate.UnitPrice.Units, rate.UnitPrice.Nanos), true
}
