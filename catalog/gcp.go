package catalog

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudbilling/v1"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// NewGoogleClients builds Compute Engine and Cloud Billing services using
// application default credentials.
func NewGoogleClients(ctx context.Context, opts ...option.ClientOption) (*compute.Service, *cloudbilling.APIService, error) {
	if len(opts) == 0 {
		httpClient, err := google.DefaultClient(ctx, compute.CloudPlatformScope)
		if err != nil {
			return nil, nil, fmt.Errorf("loading default credentials: %w", err)
		}
		opts = []option.ClientOption{option.WithHTTPClient(httpClient)}
	}

	computeSvc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating compute service: %w", err)
	}
	billingSvc, err := cloudbilling.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating billing service: %w", err)
	}
	return computeSvc, billingSvc, nil
}

// GCP lists resources in one project through the Compute Engine API.
type GCP struct {
	svc     *compute.Service
	project string
	timeout time.Duration
}

func NewGCP(svc *compute.Service, project string, timeout time.Duration) *GCP {
	return &GCP{svc: svc, project: project, timeout: timeout}
}

func (g *GCP) ListInstances(ctx context.Context, zone, pageToken string) (InstancePage, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	call := g.svc.Instances.List(g.project, zone).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return InstancePage{}, fmt.Errorf("listing instances in %s/%s: %w", g.project, zone, err)
	}

	page := InstancePage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		page.Items = append(page.Items, Instance{
			Name:        item.Name,
			MachineType: ShortName(item.MachineType),
			Labels:      item.Labels,
		})
	}
	return page, nil
}

func (g *GCP) ListDisks(ctx context.Context, zone, pageToken string) (DiskPage, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	call := g.svc.Disks.List(g.project, zone).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return DiskPage{}, fmt.Errorf("listing disks in %s/%s: %w", g.project, zone, err)
	}

	page := DiskPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		page.Items = append(page.Items, Disk{
			Name:   item.Name,
			Type:   ShortName(item.Type),
			SizeGB: item.SizeGb,
			Labels: item.Labels,
		})
	}
	return page, nil
}

func (g *GCP) ListMachineTypes(ctx context.Context, zone, pageToken string) (MachineTypePage, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	call := g.svc.MachineTypes.List(g.project, zone).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return MachineTypePage{}, fmt.Errorf("listing machine types in %s: %w", zone, err)
	}

	page := MachineTypePage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		page.Items = append(page.Items, MachineType{
			Name:        item.Name,
			CPUs:        item.GuestCpus,
			MemoryMB:    item.MemoryMb,
			Description: item.Description,
		})
	}
	return page, nil
}

func (g *GCP) ListDiskTypes(ctx context.Context, zone, pageToken string) (DiskTypePage, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	call := g.svc.DiskTypes.List(g.project, zone).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return DiskTypePage{}, fmt.Errorf("listing disk types in %s: %w", zone, err)
	}

	page := DiskTypePage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		page.Items = append(page.Items, DiskType{
			Name:        item.Name,
			Description: item.Description,
		})
	}
	return page, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
