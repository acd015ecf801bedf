// Package build provides the canonical build pipeline for blogbuilder.
//
// Every execution path (the build and watch commands, tests) routes
// through BuildService. A build runs the stages
// load, plan, skip_evaluation, render, record and notify, timing each one
// through a metrics.Recorder and tagging logs with the build id and stage.
package build
