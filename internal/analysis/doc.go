// Package analysis extracts per-body time series from recorded frames and
// estimates orbital periods from their spectra.
package analysis
