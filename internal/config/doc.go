// Package config loads, normalizes, and validates vttscribe configuration.
//
// It supplies repository defaults (the extension allow-list and directory
// exclude-list among them), expands user paths including tilde shortcuts,
// reads TOML files, and honours environment fallbacks such as
// VTTSCRIBE_LANGUAGE. The Config value is passed explicitly to discovery,
// the lock manager, and the engines; nothing reads process-wide state.
package config
