package service

import (
	"context"
	"sync"

	"github.com/conciergedev/concierge/core"
)

// StubDeployer implements core.Deployer without provisioning anything: it
// records the request and hands back a deployment id.
type StubDeployer struct {
	mu          sync.Mutex
	deployments []Deployment
}

// Deployment is one recorded deploy request.
type Deployment struct {
	ID     string
	UserID string
	Entry  core.CatalogEntry
	Fields map[string]string
}

var _ core.Deployer = (*StubDeployer)(nil)

// NewStubDeployer constructs an empty stub.
func NewStubDeployer() *StubDeployer {
	return &StubDeployer{}
}

// Deploy records the request and returns a fresh deployment id.
func (s *StubDeployer) Deploy(_ context.Context, userID string, entry core.CatalogEntry, fields map[string]string) (string, error) {
	id := core.NewID()
	s.mu.Lock()
	s.deployments = append(s.deployments, Deployment{ID: id, UserID: userID, Entry: entry, Fields: fields})
	s.mu.Unlock()
	return id, nil
}

// Deployments returns a copy of the recorded requests.
func (s *StubDeployer) Deployments() []Deployment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Deployment, len(s.deployments))
	copy(out, s.deployments)
	return out
}
