package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler captures SIGINT and SIGTERM during Hold.
type Handler struct {
	signals  []os.Signal
	hooks    []func(os.Signal)
	mu       sync.Mutex
	received os.Signal
}

// NewHandler creates a handler for SIGINT and SIGTERM.
func NewHandler() *Handler {
	return &Handler{
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		hooks:   make([]func(os.Signal), 0),
	}
}

// OnSignal registers a hook run for every signal caught during Hold.
// Hooks are called in reverse order of registration.
func (h *Handler) OnSignal(hook func(os.Signal)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Hold runs fn with termination signals captured. A signal arriving while
// fn runs is recorded and passed to the hooks; fn is never interrupted.
// Default signal handling is restored when Hold returns.
func (h *Handler) Hold(fn func() error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case sig := <-sigCh:
				h.fire(sig)
			case <-stop:
				return
			}
		}
	}()

	err := fn()

	signal.Stop(sigCh)
	close(stop)
	wg.Wait()

	// A signal may have been queued just before Stop.
	select {
	case sig := <-sigCh:
		h.fire(sig)
	default:
	}
	return err
}

// Interrupted returns the last signal caught during Hold, or nil.
func (h *Handler) Interrupted() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

func (h *Handler) fire(sig os.Signal) {
	h.mu.Lock()
	h.received = sig
	hooks := make([]func(os.Signal), len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i](sig)
	}
}
