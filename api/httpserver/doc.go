// Package httpserver runs the relay's HTTP surface.
//
// BaseServer wraps the routes of one or more RouteRegistrar components with
// request IDs, panic recovery and slog access logging, and adds:
//
//   - /livez and /readyz for orchestrator health checks
//   - /drain and /undrain to take an instance out of rotation before shutdown
//   - /debug/pprof when EnablePprof is set
//   - a separate metrics listener on MetricsAddr
//
// Typical use:
//
//	h := relay.NewHandler(svc, relay.HandlerConfig{}, log)
//	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
//	    ListenAddr: ":8080",
//	    Log:        log,
//	}, h)
//	if err != nil {
//	    return err
//	}
//	srv.RunInBackground()
//	defer srv.Shutdown()
package httpserver
