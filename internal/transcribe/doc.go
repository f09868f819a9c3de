// Package transcribe runs an engine over discovered media files one at a
// time.
//
// Each file moves through discovered, locked, writing, one of completed,
// failed or interrupted, and finally unlocked. Failed and interrupted files
// never keep partial subtitles, so a later run picks them up again. Percent
// progress is written to the progress writer as one integer per line, and
// every file that was locked ends with a line reading 100.
package transcribe
