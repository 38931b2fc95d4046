package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/database/profiles"
	"github.com/mrlokans/libraryhub/internal/http"
	"github.com/mrlokans/libraryhub/internal/scheduler"
	"github.com/mrlokans/libraryhub/internal/tasks"
)

// =============================================================================
// Remote Data Store
// =============================================================================

// Backend implementations
var _ backend.Backend = (*backend.SQL)(nil)
var _ backend.Backend = (*backend.Fixture)(nil)

// Seeder implementations
var _ backend.Seeder = (*backend.SQL)(nil)
var _ backend.Seeder = (*backend.Fixture)(nil)

// ProfileSource implementations
var _ backend.ProfileSource = (*profiles.Repository)(nil)

// Pinger implementations
var _ http.Pinger = (backend.Backend)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ circulation.AuditRecorder = (*audit.Service)(nil)
var _ auth.Auditor = (*audit.Service)(nil)
var _ http.Auditor = (*audit.Service)(nil)
var _ tasks.SweepRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.OverdueMarker = (backend.Backend)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
