// Package recommend suggests machine and disk types for a stated workload.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nexuslm/catalog"
)

var ErrInvalidRequest = errors.New("invalid recommendation request")

type Workload string

const (
	WebServer      Workload = "web-server"
	DataProcessing Workload = "data-processing"
)

// headroom caps web-server candidates relative to the requested capacity.
const headroom = 1.5

type profile struct {
	family   string
	kind     string
	diskType string
	diskKind string
	fits     func(m catalog.MachineType, r Request) bool
}

var profiles = map[Workload]profile{
	// Upper-bound fit keeps web servers from being over-provisioned.
	WebServer: {
		family:   "n2-standard-",
		kind:     "General-purpose",
		diskType: "pd-standard",
		diskKind: "Standard",
		fits: func(m catalog.MachineType, r Request) bool {
			return float64(m.CPUs) <= headroom*float64(r.VCPU) && m.MemoryGB() <= headroom*r.MemoryGB
		},
	},
	// Lower-bound fit guarantees enough capacity for batch work.
	DataProcessing: {
		family:   "c2-standard-",
		kind:     "Compute-optimized",
		diskType: "pd-ssd",
		diskKind: "SSD",
		fits: func(m catalog.MachineType, r Request) bool {
			return m.CPUs >= r.VCPU && m.MemoryGB() >= r.MemoryGB
		},
	},
}

// Request is a validated recommendation request.
type Request struct {
	Workload  Workload
	VCPU      int64
	MemoryGB  float64
	StorageGB int64
	Zone      string
}

func (r Request) Validate() error {
	if _, ok := profiles[r.Workload]; !ok {
		return fmt.Errorf("%w: workload_type must be %q or %q, got %q", ErrInvalidRequest, WebServer, DataProcessing, r.Workload)
	}
	if r.VCPU <= 0 {
		return fmt.Errorf("%w: vcpu_count must be positive", ErrInvalidRequest)
	}
	if r.MemoryGB <= 0 {
		return fmt.Errorf("%w: memory_gb must be positive", ErrInvalidRequest)
	}
	if r.StorageGB <= 0 {
		return fmt.Errorf("%w: storage_gb must be positive", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Zone) == "" {
		return fmt.Errorf("%w: zone is required", ErrInvalidRequest)
	}
	return nil
}

type Item struct {
	ProductID   string         `json:"product_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Specs       map[string]any `json:"specs"`
}

type Engine struct {
	compute catalog.Compute
	logger  zerolog.Logger
}

func NewEngine(compute catalog.Compute) *Engine {
	return &Engine{
		compute: compute,
		logger:  log.With().Str("component", "recommend").Logger(),
	}
}

// Recommend filters the zone's machine types through the workload's fit
// predicate and appends the matching disk type. Items keep catalog order.
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := profiles[req.Workload]

	e.logger.Info().
		Str("workload", string(req.Workload)).
		Int64("vcpu", req.VCPU).
		Float64("memory_gb", req.MemoryGB).
		Str("zone", req.Zone).
		Msg("building recommendations")

	items := []Item{}
	token := ""
	for {
		page, err := e.compute.ListMachineTypes(ctx, req.Zone, token)
		if err != nil {
			return nil, fmt.Errorf("retrieving machine types: %w", err)
		}
		for _, m := range page.Items {
			if !strings.HasPrefix(m.Name, p.family) || !p.fits(m, req) {
				continue
			}
			items = append(items, Item{
				ProductID:   m.Name,
				Name:        m.Name + " Instance",
				Description: fmt.Sprintf("%s instance with %d vCPUs and %gGB memory", p.kind, m.CPUs, m.MemoryGB()),
				Specs: map[string]any{
					"cpus":      m.CPUs,
					"memory_gb": m.MemoryGB(),
				},
			})
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	disk, err := e.findDisk(ctx, req, p)
	if err != nil {
		return nil, err
	}
	if disk != nil {
		items = append(items, *disk)
	}

	e.logger.Info().Int("recommendations", len(items)).Msg("recommendations built")
	return items, nil
}

func (e *Engine) findDisk(ctx context.Context, req Request, p profile) (*Item, error) {
	token := ""
	for {
		page, err := e.compute.ListDiskTypes(ctx, req.Zone, token)
		if err != nil {
			return nil, fmt.Errorf("retrieving disk types: %w", err)
		}
		for _, d := range page.Items {
			if d.Name != p.diskType {
				continue
			}
			return &Item{
				ProductID:   d.Name,
				Name:        "Persistent Disk",
				Description: fmt.Sprintf("Storage optimized for %s", req.Workload),
				Specs: map[string]any{
					"type":    p.diskKind,
					"size_gb": req.StorageGB,
				},
			}, nil
		}
		if page.NextPageToken == "" {
			e.logger.Warn().Str("disk_type", p.diskType).Str("zone", req.Zone).Msg("disk type not offered in zone")
			return nil, nil
		}
		token = page.NextPageToken
	}
}
