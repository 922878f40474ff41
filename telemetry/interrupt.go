package telemetry

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Process-wide interrupt token. All live samplers watch the same channel; the
// handler is installed at most once and closes the channel exactly once.
var (
	interruptMu     sync.Mutex
	interruptToken  chan struct{}
	interruptSigCh  chan os.Signal
	interruptClosed bool
)

func interruptCh() <-chan struct{} {
	interruptMu.Lock()
	defer interruptMu.Unlock()
	if interruptToken == nil {
		interruptToken = make(chan struct{})
	}
	return interruptToken
}

// InstallInterruptHandler registers a process-level SIGINT/SIGTERM handler
// that cancels every live sampler. It returns a teardown function that
// unregisters the handler and resets the token so tests can install it again.
// Installing twice without teardown is a no-op.
func InstallInterruptHandler() (uninstall func()) {
	interruptMu.Lock()
	defer interruptMu.Unlock()

	if interruptSigCh != nil {
		return func() {}
	}
	if interruptToken == nil {
		interruptToken = make(chan struct{})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	interruptSigCh = sigCh

	go func() {
		if _, ok := <-sigCh; !ok {
			return
		}
		interruptMu.Lock()
		defer interruptMu.Unlock()
		if !interruptClosed {
			interruptClosed = true
			close(interruptToken)
		}
	}()

	return func() {
		interruptMu.Lock()
		defer interruptMu.Unlock()
		if interruptSigCh == nil {
			return
		}
		signal.Stop(interruptSigCh)
		close(interruptSigCh)
		interruptSigCh = nil
		interruptToken = make(chan struct{})
		interruptClosed = false
	}
}
