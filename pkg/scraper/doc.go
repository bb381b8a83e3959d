// Package scraper wires the pipeline together: feed traversal, snapshot
// persistence, task resolution, and the concurrent download pool.
//
// Data flows one way. The traverser produces the ordered item list,
// which is persisted wholesale as a snapshot under the output root. The
// resolver turns items into (source URL, destination path) pairs, and
// the worker pool materializes those pairs on disk. A run ends with a
// Summary of how many tasks succeeded, were skipped, or failed.
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	s, err := scraper.New(cfg)
//	summary, err := s.Run(false) // false forces a fresh traversal
package scraper
