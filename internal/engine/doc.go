// Package engine defines the speech engine contract shared by the stream and
// subprocess implementations, along with the command executor they use to
// drive external interpreters.
//
// Engines are injected into the runner; nothing in this package reads global
// configuration.
package engine
