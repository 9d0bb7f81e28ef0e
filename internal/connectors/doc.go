// Package connectors provides corpus sources for the retrieval core.
//
// Each connector turns an external collection of notes into domain.Document
// values and implements driven.CorpusProvider:
//
//   - vault: a local directory of markdown notes with optional YAML front matter
package connectors
