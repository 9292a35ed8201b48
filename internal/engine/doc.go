// Package engine is the façade over the catalog, the analysis pool, and the
// scoring components. The CLI and embedding callers go through it rather
// than touching the parts directly.
package engine
