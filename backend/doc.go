// Package backend decides which graphics backend a renderer runs on.
//
// Two backend kinds exist. Capable drives a modern GPU through the gogpu
// HAL and supports every shading feature, including storage buffers.
// Compatible targets the GLSL ES 3.00 feature level and runs anywhere,
// executing compiled shading graphs on the CPU.
//
// # Selection
//
// Selection combines a Preference with the result of a capability probe:
//
//	kind := backend.Select(backend.PreferAuto, backend.RunProbe(prober))
//
// Select is a pure function. Forcing Compatible always yields Compatible;
// otherwise Capable is chosen exactly when the probe reports support.
// Probe failures never escape: RunProbe turns errors and panics into an
// unsupported result that keeps the cause for logging.
package backend
