// Package sync turns schema model updates into published store records.
//
// # Orchestrator
//
// Orchestrator.OnModelUpdated is the single entry point for a new model. It
// stores the model in the schema registry, assigns the next generation and
// publishes two records derived from the model:
//
//   - the module library (ietf-yang-library:modules-state)
//   - the RESTCONF capabilities (ietf-restconf-monitoring:restconf-state)
//
// The two publications are independent. A failure of the first does not stop
// the second, and the returned error is the single failure unchanged or both
// failures joined. Concurrent writes by peer nodes are resolved by the
// publisher and never surface as errors here.
//
// # Sync decisions
//
// Decider evaluates a node's status.SyncStatus and returns a Reason. Use
// Reason.ShouldSync to check whether a sync is needed and Reason.String for
// logs. DataChangeDetector compares the model source hash with the hash of the
// last accepted model, and AutomaticSyncChecker schedules optional periodic
// republishing. The coordinator subpackage runs these checks in the
// background.
package sync
