// Package coordinator drives model updates from the model source.
//
// The coordinator reads the model file on startup and hands the model to the
// sync orchestrator. After that it checks the source whenever the file watcher
// signals a change and on a jittered resync ticker:
//
//   - a source whose hash matches the last accepted model is not republished
//   - an incomplete publication (Partial or Failed) is retried on the next check
//   - Trigger republishes the current source unconditionally
//
// Sync decisions are taken from the status tracker the orchestrator reports
// to, so both must share the same tracker.
//
//	coord := coordinator.New(src, orchestrator, orchestrator.Tracker(),
//	    coordinator.WithResyncInterval(cfg.Source.GetResyncInterval()),
//	    coordinator.WithChangeNotifications(changes),
//	)
//	go coord.Start(ctx)
//	defer coord.Stop()
package coordinator
