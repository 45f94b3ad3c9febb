// Package fold decides which JSDoc comment blocks of a JavaScript or
// TypeScript document should be collapsed.
//
// The package never folds anything itself. It scans document lines, filters
// the blocks the user expanded during the session and the blocks attached to
// a class or module export, and hands the remaining start lines to a Host.
//
// # Components
//
//   - Scanner: JSDoc block ranges, class body ranges, attachment rules
//   - Tracker: per-document set of blocks the user currently has in view
//   - Engine: one fold pass per trigger event (open, switch, command)
//   - Scheduler: delayed passes and the optional periodic class unfold
//
// # Basic Usage
//
//	engine := fold.NewEngine(host)
//	doc := fold.NewSnapshot(fold.DocumentKey(path), fold.DetectLanguage(path), text)
//
//	// Document opened or focused
//	decision, err := engine.DocumentOpened(ctx, doc)
//
//	// Editor scrolled or a fold was toggled
//	engine.VisibleRangesChanged(doc, visible)
//
//	// Tab closed: forget everything about the document
//	engine.DocumentClosed(doc.Key())
//
// Every pass is independent and idempotent. Ranges are recomputed from the
// snapshot each time and never cached across edits.
package fold
