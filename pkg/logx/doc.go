// Package logx provides the structured logging service used across herald.
//
// It wraps zerolog behind a small Logger value type so call sites stay
// stable while the Service hot-swaps sinks and levels on config reload.
package logx
