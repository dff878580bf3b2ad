// Package file keeps settings and prompt templates as files under the
// reqdistill config directory.
package file
