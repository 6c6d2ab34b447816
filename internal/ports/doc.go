// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [PowerSource]: Drives and measures the instrument channels
//   - [SampleLog]: Append-only persistence for samples plus the export pointer
//   - [Exporter]: Materializes the log into a spreadsheet artifact
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters, internal/samplelog,
// internal/excel) implement them with concrete implementations (serial
// instrument, CSV file, xlsx writer, zerolog).
//
// This separation enables:
//   - Testing application logic with mock implementations
//   - Swapping infrastructure without changing business logic
//   - Clear boundaries and dependency direction
package ports
