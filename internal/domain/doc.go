// Package domain contains the core domain entities and value objects for
// cwtlogger.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Sample]: One acquisition cycle (timestamp, relative hours, one reading
//     per channel with the three-state float encoding)
//   - [SessionInfo]: Point-in-time snapshot of the session controller
//   - [Window]: Aligned time/value snapshot served to renderers
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
