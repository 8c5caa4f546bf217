// Package keylog provides the structured logger shared by the adapter,
// device and manager dispatch loops.
package keylog

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	base   = logrus.New()
	inited bool
)

func init() {
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(logrus.InfoLevel)
}

// SetVerbose raises the log level to Debug when verbose is set, or to
// Trace whenever debug is set (with or without verbose), and resets it
// to Info when neither is set, mirroring the verbose/debug logging flags in the environment
// configuration surface.
func SetVerbose(verbose, debug bool) {
	mu.Lock()
	defer mu.Unlock()
	switch {
	case debug:
		base.SetLevel(logrus.TraceLevel)
	case verbose:
		base.SetLevel(logrus.DebugLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}
}

// For returns a logger scoped to component, e.g. "adapter", "device", "manager".
func For(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()
	return base.WithField("component", component)
}
