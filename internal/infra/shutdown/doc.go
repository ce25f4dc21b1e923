// Package shutdown defers process termination signals while an operation
// that must not stop halfway is running.
//
// A restore wipes and refills collections one by one. Killing the process
// between those steps leaves the datastore half restored, so the CLI runs
// export and import under Hold:
//
//	h := shutdown.NewHandler()
//	h.OnSignal(func(sig os.Signal) { log.Warn("finishing first", "signal", sig) })
//	err := h.Hold(func() error { return svc.Import(ctx, path, pass) })
//
// A second Hold on the same Handler is allowed once the first returned.
package shutdown
