// Package guard provides token-based authentication, authorization, and
// session-activity tracking for multi-role web services.
//
// Request lifecycle:
//   - Guard.Authenticate extracts a bearer token, verifies it through the
//     TokenService, resolves the Identity via the UserDirectory, and attaches
//     an immutable AuthContext to the request. Strict mode terminates the
//     request with a structured 401 on any failure; Optional mode collapses
//     failures into an explicit unauthenticated context and continues.
//   - Guard.RequireRole and Guard.RequireOwnershipOrAdmin enforce policy after
//     authentication. Admins always pass both checks.
//
// Activity recording:
//   - ActivityRecorder persists audit records through a bounded queue serviced
//     by a background worker. Writes are fire-and-forget: the request path
//     never waits on them, overflow drops the newest record, and failures are
//     only visible through counters and the logger.
//
// Tokens:
//   - TokenService issues and verifies signed, time-bound session tokens with
//     registered claims only. Roles are never embedded in tokens, so a role or
//     active-flag change takes effect on the very next request.
package guard
