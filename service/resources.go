package service

import (
	"context"
	"strings"

	"github.com/conciergedev/concierge/core"
)

// StaticResourceLister serves canned resource listings for the context and
// resource-type combinations it was seeded with. Combinations it was not
// seeded with are unsupported; callers must check Supports first.
type StaticResourceLister struct {
	listings map[string][]core.Resource
}

var _ core.ResourceLister = (*StaticResourceLister)(nil)

// NewStaticResourceLister builds a lister over the given listings, keyed
// by context and resource type.
func NewStaticResourceLister(listings map[string]map[string][]core.Resource) *StaticResourceLister {
	flat := map[string][]core.Resource{}
	for contextName, byType := range listings {
		for resourceType, resources := range byType {
			flat[listingKey(contextName, resourceType)] = resources
		}
	}
	return &StaticResourceLister{listings: flat}
}

// NewDefaultResourceLister seeds the demo listings used by the example
// server: a few instances and buckets per provider.
func NewDefaultResourceLister() *StaticResourceLister {
	return NewStaticResourceLister(map[string]map[string][]core.Resource{
		"aws": {
			"instances": {
				{ID: "i-0a1b2c3d", Name: "web-1", Type: "instances", Region: "us-east-1", Status: "running"},
				{ID: "i-0e4f5a6b", Name: "worker-1", Type: "instances", Region: "us-east-1", Status: "stopped"},
			},
			"buckets": {
				{ID: "assets-prod", Name: "assets-prod", Type: "buckets", Region: "us-east-1"},
			},
			"databases": {
				{ID: "orders-db", Name: "orders-db", Type: "databases", Region: "us-west-2", Status: "available"},
			},
		},
		"azure": {
			"vms": {
				{ID: "vm-web-01", Name: "vm-web-01", Type: "vms", Region: "westeurope", Status: "running"},
			},
			"storage-accounts": {
				{ID: "stassetsprod", Name: "stassetsprod", Type: "storage-accounts", Region: "westeurope"},
			},
		},
		"gcp": {
			"instances": {
				{ID: "gce-web-1", Name: "gce-web-1", Type: "instances", Region: "us-central1", Status: "RUNNING"},
			},
		},
	})
}

// Supports reports whether the (context, resourceType) pair was seeded.
func (s *StaticResourceLister) Supports(contextName, resourceType string) bool {
	_, ok := s.listings[listingKey(contextName, resourceType)]
	return ok
}

// List returns the resources for a supported combination, or
// core.ErrUnsupportedListing.
func (s *StaticResourceLister) List(_ context.Context, contextName, resourceType string) ([]core.Resource, error) {
	resources, ok := s.listings[listingKey(contextName, resourceType)]
	if !ok {
		return nil, core.ErrUnsupportedListing
	}
	out := make([]core.Resource, len(resources))
	copy(out, resources)
	return out, nil
}

func listingKey(contextName, resourceType string) string {
	return strings.ToLower(strings.TrimSpace(contextName)) + "/" + strings.ToLower(strings.TrimSpace(resourceType))
}
