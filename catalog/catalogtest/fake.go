// Package catalogtest provides an in-memory catalog for tests.
package catalogtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"nexuslm/catalog"
)

// Fake serves fixed resources split into pages of PageSize items and
// records every page request. Zero PageSize returns everything at once.
type Fake struct {
	Instances    []catalog.Instance
	Disks        []catalog.Disk
	MachineTypes []catalog.MachineType
	DiskTypes    []catalog.DiskType
	Prices       map[string]catalog.Money
	PageSize     int

	// Err, when set, is returned by every call.
	Err error

	mu           sync.Mutex
	pageCalls    map[string][]string
	priceCalls   map[string]int
	priceRegions []string
}

// PageCalls returns the page tokens requested for a listing kind
// ("instances", "disks", "machineTypes", "diskTypes") in order.
func (f *Fake) PageCalls(kind string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pageCalls[kind]...)
}

// CallCount is the total number of calls of any kind.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, calls := range f.pageCalls {
		n += len(calls)
	}
	for _, c := range f.priceCalls {
		n += c
	}
	return n
}

func (f *Fake) PriceCalls(resourceType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.priceCalls[resourceType]
}

// PriceRegions returns the region of every price lookup in order.
func (f *Fake) PriceRegions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.priceRegions...)
}

func (f *Fake) record(kind, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageCalls == nil {
		f.pageCalls = make(map[string][]string)
	}
	f.pageCalls[kind] = append(f.pageCalls[kind], token)
}

// window returns the [start,end) slice bounds for token and the next token.
func (f *Fake) window(token string, total int) (int, int, string, error) {
	start := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > total {
			return 0, 0, "", fmt.Errorf("invalid page token %q", token)
		}
		start = n
	}
	if f.PageSize <= 0 {
		return start, total, "", nil
	}
	end := min(start+f.PageSize, total)
	next := ""
	if end < total {
		next = strconv.Itoa(end)
	}
	return start, end, next, nil
}

func (f *Fake) ListInstances(_ context.Context, _ string, token string) (catalog.InstancePage, error) {
	f.record("instances", token)
	if f.Err != nil {
		return catalog.InstancePage{}, f.Err
	}
	start, end, next, err := f.window(token, len(f.Instances))
	if err != nil {
		return catalog.InstancePage{}, err
	}
	return catalog.InstancePage{Items: f.Instances[start:end], NextPageToken: next}, nil
}

func (f *Fake) ListDisks(_ context.Context, _ string, token string) (catalog.DiskPage, error) {
	f.record("disks", token)
	if f.Err != nil {
		return catalog.DiskPage{}, f.Err
	}
	start, end, next, err := f.window(token, len(f.Disks))
	if err != nil {
		return catalog.DiskPage{}, err
	}
	return catalog.DiskPage{Items: f.Disks[start:end], NextPageToken: next}, nil
}

func (f *Fake) ListMachineTypes(_ context.Context, _ string, token string) (catalog.MachineTypePage, error) {
	f.record("machineTypes", token)
	if f.Err != nil {
		return catalog.MachineTypePage{}, f.Err
	}
	start, end, next, err := f.window(token, len(f.MachineTypes))
	if err != nil {
		return catalog.MachineTypePage{}, err
	}
	return catalog.MachineTypePage{Items: f.MachineTypes[start:end], NextPageToken: next}, nil
}

func (f *Fake) ListDiskTypes(_ context.Context, _ string, token string) (catalog.DiskTypePage, error) {
	f.record("diskTypes", token)
	if f.Err != nil {
		return catalog.DiskTypePage{}, f.Err
	}
	start, end, next, err := f.window(token, len(f.DiskTypes))
	if err != nil {
		return catalog.DiskTypePage{}, err
	}
	return catalog.DiskTypePage{Items: f.DiskTypes[start:end], NextPageToken: next}, nil
}

func (f *Fake) UnitPrice(_ context.Context, region, resourceType string) (catalog.Money, error) {
	f.mu.Lock()
	if f.priceCalls == nil {
		f.priceCalls = make(map[string]int)
	}
	f.priceCalls[resourceType]++
	f.priceRegions = append(f.priceRegions, region)
	f.mu.Unlock()

	if f.Err != nil {
		return 0, f.Err
	}
	price, ok := f.Prices[resourceType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", catalog.ErrNoSKU, resourceType)
	}
	return price, nil
}

// Dollars converts a decimal price literal, e.g. Dollars(0.17), to Money.
func Dollars(v float64) catalog.Money {
	return catalog.Money(v*1e9 + 0.5)
}
