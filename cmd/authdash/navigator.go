package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/guard"
)

// navigator is the only listener reacting to session events. It owns the decision
// to send the user back to the login entry point.
type navigator struct {
	mu            sync.Mutex
	out           io.Writer
	loginRequired bool
	expired       bool
}

func newNavigator(out io.Writer) *navigator {
	return &navigator{out: out}
}

// Emit implements goAuthClient.EventSink. A rejected login is reported by the
// login view, not as an expired session.
func (n *navigator) Emit(_ context.Context, event goAuthClient.SessionEvent) {
	if event.Type != goAuthClient.EventSessionInvalidated || !event.HadToken || event.Path == goAuthClient.PathLogin {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loginRequired = true
	if n.expired {
		return
	}
	n.expired = true
	fmt.Fprintln(n.out, "Session expired. Please log in again.")
}

// redirect is the guard denial hook.
func (n *navigator) redirect(_ context.Context, res guard.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loginRequired = true
	switch res.Reason {
	case guard.ReasonUnauthorized:
		if n.expired {
			return
		}
		n.expired = true
		fmt.Fprintln(n.out, "Session expired. Please log in again.")
	case guard.ReasonNetwork, guard.ReasonProbeFailed, guard.ReasonStoreError:
		fmt.Fprintf(n.out, "Could not validate session: %s\n", goAuthClient.ErrorMessage(res.Err))
		fmt.Fprintln(n.out, `Please log in: authdash login -u USERNAME`)
	default:
		fmt.Fprintln(n.out, `Please log in: authdash login -u USERNAME`)
	}
}

func (n *navigator) LoginRequired() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loginRequired
}
