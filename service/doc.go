// Package service ships reference implementations of the external domain
// collaborators (cart, orders, resource listing, deployment). They keep
// everything in process-local memory and exist so the engine can run in
// tests and demos without real backends; production deployments substitute
// their own implementations of the core interfaces.
package service
