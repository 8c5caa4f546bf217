package dbt

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/direct-bt/dbt/internal/keylog"
)

// SetVerbose forwards to internal/keylog, the single place log level is
// configured, per the verbose/debug logging flags in spec.md §6
// Environment/configuration.
func SetVerbose(verbose, debug bool) { keylog.SetVerbose(verbose, debug) }

func newAdapterLog(devID int) *logrus.Entry {
	return keylog.For("adapter").WithField("dev", devID)
}

func newDeviceLog(addr BDAddressAndType) *logrus.Entry {
	return keylog.For("device").WithField("addr", addr.String())
}

func newManagerLog() *logrus.Entry {
	return keylog.For("manager")
}

func wrapf(base error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}
