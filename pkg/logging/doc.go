// Package logging is the subsystem-tagged logging facade used across
// ruler-informer.
//
// Every call names the subsystem it comes from, which ends up as the
// "subsystem" attribute of the slog record:
//
//	logging.Info("RulerGateway", "received ruler response %d", code)
//	logging.Error("StatusPatcher", err, "failed to apply rule %s", name)
//
// InitForCLI must be called once at startup. It installs the handler as the
// process-wide slog default and as controller-runtime's logr sink, so
// informer and client logs share the same output and level.
package logging
