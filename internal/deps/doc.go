// Package deps checks that external executables and Python modules needed by
// the speech engines are installed.
package deps
