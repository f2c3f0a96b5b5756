package cache

import (
	"testing"

	"github.com/cavecrawl/go-cavecrawl/mdp"
	"github.com/cavecrawl/go-cavecrawl/policy"
)

func TestNewPolicyCache(t *testing.T) {
	cache := NewPolicyCache(100)
	if cache.Size() != 0 {
		t.Error("New cache should be empty")
	}
}

func TestKeyDeterministic(t *testing.T) {
	cfg := mdp.DefaultConfig()
	k1 := Key("XSGX", cfg)
	k2 := Key("XSGX", cfg)
	if k1 != k2 {
		t.Error("Same input should produce same key")
	}
}

func TestKeyVariesWithInput(t *testing.T) {
	cfg := mdp.DefaultConfig()
	base := Key("XSGX", cfg)

	if Key("XS GX", cfg) == base {
		t.Error("Different map should produce different key")
	}

	skilled := cfg.WithSkill(7)
	if Key("XSGX", skilled) == base {
		t.Error("Different skill should produce different key")
	}

	classic := mdp.ClassicConfig()
	if Key("XSGX", classic) == base {
		t.Error("Different reward constants should produce different key")
	}
}

func TestPolicyCachePutGet(t *testing.T) {
	cache := NewPolicyCache(100)

	res := &policy.Result{Converged: true}
	cache.Put("k1", res)

	if cache.Get("k1") != res {
		t.Error("Should retrieve same result")
	}
	if cache.Get("k2") != nil {
		t.Error("Unknown key should miss")
	}
}

func TestPolicyCacheEviction(t *testing.T) {
	cache := NewPolicyCache(2)

	// Add 3 entries to trigger eviction
	cache.Put("a", &policy.Result{})
	cache.Put("b", &policy.Result{})
	cache.Put("c", &policy.Result{})

	if cache.Size() > 2 {
		t.Errorf("Cache size should be <= 2, got %d", cache.Size())
	}
	if cache.Stats().Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", cache.Stats().Evictions)
	}
}

func TestPolicyCacheGetOrCompute(t *testing.T) {
	cache := NewPolicyCache(100)

	computeCount := 0
	compute := func() (*policy.Result, error) {
		computeCount++
		return &policy.Result{Converged: true}, nil
	}

	// First call should compute
	res1, err := cache.GetOrCompute("k", compute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if computeCount != 1 {
		t.Error("Should compute on first call")
	}

	// Second call should use cache
	res2, err := cache.GetOrCompute("k", compute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if computeCount != 1 {
		t.Error("Should not compute on second call")
	}

	if res1 != res2 {
		t.Error("Should return same result")
	}
}

func TestPolicyCacheStats(t *testing.T) {
	cache := NewPolicyCache(100)

	cache.Put("k", &policy.Result{})
	cache.Get("k")
	cache.Get("missing")

	stats := cache.Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", stats.HitRate)
	}
}

func TestPolicyCacheClear(t *testing.T) {
	cache := NewPolicyCache(100)
	cache.Put("k", &policy.Result{})
	cache.Clear()
	if cache.Size() != 0 {
		t.Error("Cache should be empty after Clear")
	}
}
