package recommend

import (
	"context"
	"errors"
	"testing"

	"nexuslm/catalog"
	"nexuslm/catalog/catalogtest"
)

func machineCatalog() []catalog.MachineType {
	return []catalog.MachineType{
		{Name: "n2-standard-2", CPUs: 2, MemoryMB: 8192},
		{Name: "c2-standard-4", CPUs: 4, MemoryMB: 16384},
		{Name: "n2-standard-4", CPUs: 4, MemoryMB: 16384},
		{Name: "c2-standard-8", CPUs: 8, MemoryMB: 32768},
		{Name: "n2-standard-8", CPUs: 8, MemoryMB: 32768},
		{Name: "e2-standard-4", CPUs: 4, MemoryMB: 16384},
	}
}

func diskCatalog() []catalog.DiskType {
	return []catalog.DiskType{{Name: "pd-balanced"}, {Name: "pd-ssd"}, {Name: "pd-standard"}}
}

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ProductID
	}
	return out
}

func TestRecommendDataProcessingScenario(t *testing.T) {
	t.Parallel()

	fake := &catalogtest.Fake{MachineTypes: machineCatalog(), DiskTypes: diskCatalog()}
	req, err := ParseRequest("data-processing", 4, 16, 100, "us-central1-a")
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}

	items, err := NewEngine(fake).Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	want := []string{"c2-standard-4", "c2-standard-8", "pd-ssd"}
	got := names(items)
	if len(got) != len(want) {
		t.Fatalf("recommendations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recommendations = %v, want %v", got, want)
		}
	}

	for _, it := range items[:2] {
		if cpus := it.Specs["cpus"].(int64); cpus < 4 {
			t.Fatalf("%s cpus = %d, want >= 4", it.ProductID, cpus)
		}
		if mem := it.Specs["memory_gb"].(float64); mem < 16 {
			t.Fatalf("%s memory = %v, want >= 16", it.ProductID, mem)
		}
	}
	disk := items[2]
	if disk.Specs["type"] != "SSD" || disk.Specs["size_gb"] != int64(100) {
		t.Fatalf("disk specs = %v", disk.Specs)
	}
}

func TestRecommendWebServerUpperBound(t *testing.T) {
	t.Parallel()

	fake := &catalogtest.Fake{MachineTypes: machineCatalog(), DiskTypes: diskCatalog(), PageSize: 2}
	req := Request{Workload: WebServer, VCPU: 3, MemoryGB: 12, StorageGB: 50, Zone: "z"}

	items, err := NewEngine(fake).Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	got := names(items)
	want := []string{"n2-standard-2", "n2-standard-4", "pd-standard"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("recommendations = %v, want %v", got, want)
	}
	for _, it := range items[:2] {
		if cpus := it.Specs["cpus"].(int64); float64(cpus) > 1.5*3 {
			t.Fatalf("%s exceeds cpu headroom", it.ProductID)
		}
		if mem := it.Specs["memory_gb"].(float64); mem > 1.5*12 {
			t.Fatalf("%s exceeds memory headroom", it.ProductID)
		}
	}
	if items[2].Specs["type"] != "Standard" {
		t.Fatalf("disk specs = %v", items[2].Specs)
	}
	if calls := fake.PageCalls("machineTypes"); len(calls) != 3 {
		t.Fatalf("machine type pages = %v, want 3 pages", calls)
	}
}

func TestRecommendMalformedInputMakesNoCalls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		workload string
		vcpu     any
		memory   any
		storage  any
	}{
		{name: "word vcpu", workload: "web-server", vcpu: "four", memory: 16, storage: 100},
		{name: "fractional vcpu", workload: "web-server", vcpu: 2.5, memory: 16, storage: 100},
		{name: "missing memory", workload: "web-server", vcpu: 4, memory: nil, storage: 100},
		{name: "bool storage", workload: "web-server", vcpu: 4, memory: 16, storage: true},
		{name: "negative vcpu", workload: "web-server", vcpu: "-2", memory: 16, storage: 100},
		{name: "unknown workload", workload: "gaming", vcpu: 4, memory: 16, storage: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseRequest(tt.workload, tt.vcpu, tt.memory, tt.storage, "z")
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("ParseRequest() error = %v, want ErrInvalidRequest", err)
			}
		})
	}

	fake := &catalogtest.Fake{MachineTypes: machineCatalog()}
	_, err := NewEngine(fake).Recommend(context.Background(), Request{Workload: "gaming", VCPU: 1, MemoryGB: 1, StorageGB: 1, Zone: "z"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Recommend() error = %v, want ErrInvalidRequest", err)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("catalog calls = %d, want 0", fake.CallCount())
	}
}

func TestParseRequestAcceptsNumericStrings(t *testing.T) {
	t.Parallel()

	req, err := ParseRequest(" Web-Server ", "4", "15.5", float64(200), "us-east1-b")
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}
	if req.Workload != WebServer || req.VCPU != 4 || req.MemoryGB != 15.5 || req.StorageGB != 200 {
		t.Fatalf("ParseRequest() = %+v", req)
	}
}

func TestRecommendCatalogError(t *testing.T) {
	t.Parallel()

	boom := errors.New("compute api down")
	fake := &catalogtest.Fake{Err: boom}
	_, err := NewEngine(fake).Recommend(context.Background(), Request{Workload: DataProcessing, VCPU: 1, MemoryGB: 1, StorageGB: 1, Zone: "z"})
	if !errors.Is(err, boom) {
		t.Fatalf("Recommend() error = %v, want %v", err, boom)
	}
}

func TestRecommendMissingDiskType(t *testing.T) {
	t.Parallel()

	fake := &catalogtest.Fake{MachineTypes: machineCatalog(), DiskTypes: []catalog.DiskType{{Name: "pd-balanced"}}}
	items, err := NewEngine(fake).Recommend(context.Background(), Request{Workload: DataProcessing, VCPU: 8, MemoryGB: 32, StorageGB: 10, Zone: "z"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got := names(items); len(got) != 1 || got[0] != "c2-standard-8" {
		t.Fatalf("recommendations = %v", got)
	}
}

func TestParseRequestAcceptsUnderscoredWorkloads(t *testing.T) {
	t.Parallel()

	tests := map[string]Workload{
		"web_server":        WebServer,
		"Data_Processing":   DataProcessing,
		" data processing ": DataProcessing,
		"web-server":        WebServer,
	}
	for in, want := range tests {
		req, err := ParseRequest(in, 2, 4, 10, "us-central1-a")
		if err != nil {
			t.Fatalf("ParseRequest(%q) error = %v", in, err)
		}
		if req.Workload != want {
			t.Errorf("ParseRequest(%q).Workload = %q, want %q", in, req.Workload, want)
		}
	}
}
