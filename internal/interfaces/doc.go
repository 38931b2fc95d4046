// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Remote Data Store
//
//   - Backend: catalog, loans and profiles behind every page (internal/backend/backend.go)
//   - Seeder: stores that can be loaded from a catalog file (internal/backend/backend.go)
//   - ProfileSource: member accounts for the fixture backend (internal/backend/backend.go)
//   - Pinger: health checks (internal/http/health.go)
//
// ## Audit Trail
//
//   - AuditRecorder: borrow and return outcomes (internal/circulation/service.go)
//   - Auditor: sign-in events and access denials (internal/auth/middleware.go), plus
//     catalog changes for the web layer (internal/http/config.go)
//
// ## Background Work
//
//   - OverdueMarker, SweepRecorder, AuditEventCleaner: task handlers (internal/tasks)
//   - Enqueuer: what the cron scheduler needs from the queue (internal/scheduler/maintenance.go)
//   - TaskQueue: what the admin endpoints need from the queue (internal/http/tasks.go)
//
// # Adding a New Backend
//
// To serve the catalog from another store (e.g. a REST service):
//
//  1. Implement Backend in internal/backend/
//
//     type Remote struct {
//         baseURL    string
//         httpClient *http.Client
//     }
//
//     func (r *Remote) Borrow(ctx context.Context, req entities.BorrowRequest) (entities.BorrowResult, error)
//
//     Borrow and Return must be atomic on the store's side and report business
//     rejections as Success=false with one of the entities.Msg* messages.
//
//  2. Add a Kind constant and a case in entrypoint.NewBackend
//
//  3. Add compile-time checks to checks.go
//
// # Adding a New Maintenance Task
//
//  1. Define the task and its queue config in internal/tasks/
//
//  2. Register the queue in Client.RegisterMaintenance and add an Enqueue method
//
//  3. Add a cron entry in scheduler.MaintenanceScheduler
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
