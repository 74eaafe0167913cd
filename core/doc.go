// Package core defines the domain model shared by every Concierge
// component: conversations and their turn history, the closed action
// taxonomy produced by classification, catalog reference data, cart and
// order shapes, and the service interfaces the engine dispatches against.
// Implementations live in sibling packages (store, catalog, service,
// model); core itself stays dependency-light so any package can import it.
package core
