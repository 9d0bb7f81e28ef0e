// Package vault loads a directory of markdown notes as a corpus.
//
// Every *.md file below the root becomes one domain.Document whose ID is the
// slash-separated path relative to the root. Hidden directories such as
// .obsidian and .git are skipped.
//
// A note may start with a YAML front matter block delimited by "---" lines.
// Recognised keys are title, tags, created and modified; tags may be a list
// or a comma separated string. Inline #tags in the body are merged in.
// Without dates in the front matter the file modification time is used.
package vault
