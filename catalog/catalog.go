// Package catalog lists compute resources and resource types and looks up
// their unit prices. The Compute and PriceBook interfaces are page- and
// item-level so callers drive pagination and per-item error policy.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrNoSKU is returned by PriceBook.UnitPrice when the billing catalog has
// no priced SKU for a resource type.
var ErrNoSKU = errors.New("no pricing sku for resource type")

// CustomerLabel is the resource label carrying the owning customer id.
const CustomerLabel = "customer_id"

const nanosPerUnit = 1_000_000_000

// Money is an amount of currency in nano units. Integer arithmetic keeps
// sums exact.
type Money int64

// FromUnitsNanos mirrors the billing API's {units, nanos} representation.
func FromUnitsNanos(units, nanos int64) Money {
	return Money(units*nanosPerUnit + nanos)
}

// Times multiplies by an integer quantity (hours, GB).
func (m Money) Times(n int64) Money {
	return m * Money(n)
}

func (m Money) Float64() float64 {
	return float64(m) / nanosPerUnit
}

// String formats with two decimals, e.g. "90.00".
func (m Money) String() string {
	return strconv.FormatFloat(m.Float64(), 'f', 2, 64)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Float64(), 'f', -1, 64)), nil
}

type Instance struct {
	Name        string
	MachineType string
	Labels      map[string]string
}

type Disk struct {
	Name   string
	Type   string
	SizeGB int64
	Labels map[string]string
}

type MachineType struct {
	Name        string
	CPUs        int64
	MemoryMB    int64
	Description string
}

func (m MachineType) MemoryGB() float64 {
	return float64(m.MemoryMB) / 1024
}

type DiskType struct {
	Name        string
	Description string
}

type InstancePage struct {
	Items         []Instance
	NextPageToken string
}

type DiskPage struct {
	Items         []Disk
	NextPageToken string
}

type MachineTypePage struct {
	Items         []MachineType
	NextPageToken string
}

type DiskTypePage struct {
	Items         []DiskType
	NextPageToken string
}

// Compute lists one page of zonal resources. An empty pageToken requests
// the first page; an empty NextPageToken marks the last page.
type Compute interface {
	ListInstances(ctx context.Context, zone, pageToken string) (InstancePage, error)
	ListDisks(ctx context.Context, zone, pageToken string) (DiskPage, error)
	ListMachineTypes(ctx context.Context, zone, pageToken string) (MachineTypePage, error)
	ListDiskTypes(ctx context.Context, zone, pageToken string) (DiskTypePage, error)
}

// PriceBook returns the unit price for a resource type offered in region:
// per hour for machine types, per GB-month for disk types.
type PriceBook interface {
	UnitPrice(ctx context.Context, region, resourceType string) (Money, error)
}

// ShortName returns the last path segment of a resource URL, e.g.
// ".../zones/us-central1-a/machineTypes/n2-standard-2" -> "n2-standard-2".
func ShortName(resourceURL string) string {
	if i := strings.LastIndex(resourceURL, "/"); i >= 0 {
		return resourceURL[i+1:]
	}
	return resourceURL
}

// RegionOf derives the region from a zone name ("us-central1-a" -> "us-central1").
func RegionOf(zone string) string {
	if i := strings.LastIndex(zone, "-"); i > 0 {
		return zone[:i]
	}
	return zone
}
