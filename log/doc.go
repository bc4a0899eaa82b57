// Package log provides the leveled logging used throughout adaptiverag.
//
// The default logger writes to stderr via the standard library. A
// kataras/golog adapter is available for leveled, colorized output:
//
//	logger := log.NewGologLogger(golog.Default)
//	logger.SetLevel(log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
package log
