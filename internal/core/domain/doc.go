// Package domain holds the values that flow through a distillation run:
// documents and their units, the requirement lists extracted from them,
// the candidate pairs and verdicts of deduplication, run records and
// settings. It imports only the standard library.
package domain
