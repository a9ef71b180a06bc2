// Package telemetry sets up diagnostic logging and the event sinks that
// observe widget interactions: a structured log sink, an OpenTelemetry span
// sink and a Prometheus counter sink. Every sink implements
// widget.EventLogger so they can be fanned out with widget.MultiLogger.
package telemetry
