// Package metrics exports transition authorization and history outcomes as
// Prometheus metrics.
//
//	collector := metrics.New("")
//	prometheus.MustRegister(collector)
//
//	authz := transition.NewAuthorizer(store, codec, transition.WithObserver(collector))
//	recorder := history.NewRecorder(storage, history.WithObserver(collector))
package metrics
