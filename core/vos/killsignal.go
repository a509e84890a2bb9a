package vos

import (
	"fmt"
	"sync"
)

// Signal is a POSIX signal number delivered through a KillSignal.
type Signal int

const (
	SigInt  Signal = 2
	SigKill Signal = 9
	SigTerm Signal = 15
)

func (s Signal) String() string {
	switch s {
	case SigInt:
		return "SIGINT"
	case SigKill:
		return "SIGKILL"
	case SigTerm:
		return "SIGTERM"
	default:
		return fmt.Sprintf("signal %d", int(s))
	}
}

// KillSignal is a node in a tree of cancellation signals. Sending a signal to
// a node runs its observers and then forwards the signal to every child.
// Sending is idempotent, only the first signal is delivered.
//
// A child created from a node that already fired fires immediately.
type KillSignal struct {
	mu        sync.Mutex
	parent    *KillSignal
	children  map[*KillSignal]struct{}
	observers map[int]func(Signal)
	nextID    int
	fired     bool
	sig       Signal
	detached  bool
	done      chan struct{}
}

// NewKillSignal creates a root KillSignal.
func NewKillSignal() *KillSignal {
	return &KillSignal{
		children:  make(map[*KillSignal]struct{}),
		observers: make(map[int]func(Signal)),
		done:      make(chan struct{}),
	}
}

// Child creates a new KillSignal that fires when k fires.
func (k *KillSignal) Child() *KillSignal {
	child := NewKillSignal()
	child.parent = k

	k.mu.Lock()
	fired, sig := k.fired, k.sig
	if !fired {
		k.children[child] = struct{}{}
	}
	k.mu.Unlock()

	if fired {
		child.Send(sig)
	}
	return child
}

// Send fires the signal. Only the first call has any effect.
func (k *KillSignal) Send(sig Signal) {
	k.mu.Lock()
	if k.fired {
		k.mu.Unlock()
		return
	}
	k.fired = true
	k.sig = sig
	close(k.done)

	observers := make([]func(Signal), 0, len(k.observers))
	for _, fn := range k.observers {
		observers = append(observers, fn)
	}
	k.observers = nil

	children := make([]*KillSignal, 0, len(k.children))
	for child := range k.children {
		children = append(children, child)
	}
	k.mu.Unlock()

	for _, fn := range observers {
		fn(sig)
	}
	for _, child := range children {
		child.Send(sig)
	}
}

// OnKill registers fn to be called when the signal fires. If it already
// fired, fn is called immediately. The returned function unregisters fn.
func (k *KillSignal) OnKill(fn func(Signal)) (cancel func()) {
	k.mu.Lock()
	if k.fired {
		sig := k.sig
		k.mu.Unlock()
		fn(sig)
		return func() {}
	}
	id := k.nextID
	k.nextID++
	k.observers[id] = fn
	k.mu.Unlock()

	return func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		delete(k.observers, id)
	}
}

// Done returns a channel that's closed when the signal fires.
func (k *KillSignal) Done() <-chan struct{} {
	return k.done
}

// Fired returns the delivered signal, if any.
func (k *KillSignal) Fired() (Signal, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.sig, k.fired
}

// Drop kills the subtree rooted at k and detaches it from its parent. Calling
// Drop more than once has no further effect.
func (k *KillSignal) Drop() {
	k.detach()
	k.Send(SigKill)
}

// Release detaches k from its parent without firing it, used once the work
// it guarded finished on its own.
func (k *KillSignal) Release() {
	k.detach()
}

func (k *KillSignal) detach() {
	k.mu.Lock()
	if k.detached {
		k.mu.Unlock()
		return
	}
	k.detached = true
	parent := k.parent
	k.mu.Unlock()

	if parent != nil {
		parent.mu.Lock()
		delete(parent.children, k)
		parent.mu.Unlock()
	}
}
