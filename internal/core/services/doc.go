// Package services is the reqdistill core. A run chunks the document,
// extracts a list per unit through the cache and a bounded worker pool,
// merges the lists, then deduplicates each category by embedding
// similarity confirmed with bidirectional entailment.
package services
