// Package runner owns the process lifecycle: banner, start and stop hooks,
// and draining background sinks on shutdown.
package runner

import (
	"bytes"
	"context"
	"io"

	"github.com/dimiro1/banner"
)

type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

type Hooks struct {
	OnStart func()
	OnStop  func()
}

type Drainer interface {
	Drain() error
}

// DrainFunc adapts a function to Drainer.
type DrainFunc func() error

func (f DrainFunc) Drain() error { return f() }

// Version is stamped at build time with -ldflags.
var Version = "dev"

// PrintBanner renders title as ASCII art followed by the version and model.
func PrintBanner(w io.Writer, title, model string, colored bool) {
	tpl := "{{ .Title \"" + title + "\" \"\" 0 }}\nVersion: " + Version + "\n"
	if model != "" {
		tpl += "Model: " + model + "\n"
	}
	banner.Init(w, true, colored, bytes.NewBufferString(tpl))
}
