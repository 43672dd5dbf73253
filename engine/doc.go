// Package engine orchestrates one sandboxed execution request end to end.
//
// The service screens the submission, creates the workspace, resolves the
// language profile, runs the optional compile phase and the run phase
// inside the sandbox, classifies the raw outcome onto the closed status
// taxonomy and guarantees workspace teardown on every exit path. Callers
// always receive a fully populated result, never an error: every failure
// mode maps onto one of the statuses.
package engine
