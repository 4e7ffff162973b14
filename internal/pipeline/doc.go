// Package pipeline runs discovered groups through the compositor.
//
// Groups are processed one at a time in discovery order. Missing inputs are
// logged and skipped; a FormatError or ShapeError aborts the run and is
// returned. The source policy decides when input files are removed: right
// after decoding, after the step's output is written, or never. The output
// directory is locked for the duration of a run.
package pipeline
