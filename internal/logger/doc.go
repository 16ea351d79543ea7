// Package logger provides structured logging functionality for the ytresolve project.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Thread-safe operations
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentResolver)
//	log.Info("Resolved media URL", map[string]interface{}{
//		"video_id": "gquRl13WryU",
//		"attempt":  1,
//	})
//
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: CLI logs
//   - ComponentResolver: resolve loop, probes and retries
//   - ComponentCipher: rule mining and signature replay
//   - ComponentFormat: catalog parsing and format selection
//   - ComponentClient: HTTP client logs
//   - ComponentCache: rule-table cache logs
//   - ComponentEngine: JavaScript engine classification logs
//   - ComponentTikTok: TikTok extractor logs
package logger
