// Package metrics records build and stage metrics.
//
// Components receive a Recorder through dependency injection. NoopRecorder
// is the default and does nothing; PrometheusRecorder registers collectors
// on a registry that can be exported in node_exporter textfile format
// after each build:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	svc := build.NewBuildService().WithRecorder(rec)
//	...
//	_ = metrics.WriteTextfile(reg, "/var/lib/node_exporter/blogbuilder.prom")
package metrics
