// Package normalisers turns source files into domain.Documents. The
// Registry picks a normaliser by MIME type and is the pipeline's
// DocumentReader; the subpackages each handle one family of formats.
package normalisers
