// Package driven declares what the core needs from the outside world.
// Adapters under internal/adapters/driven implement these interfaces;
// this package imports nothing but domain.
//
// A run needs a DocumentReader, an LLMService, a ResultCache, a
// PromptStore and a ConfigStore. The rest may be nil:
//
//   - without an EmbeddingService or an EntailmentClassifier the lists
//     are rendered without deduplication;
//   - without a ReportWriter the report stays in memory;
//   - without a RunStore no history is kept.
package driven
