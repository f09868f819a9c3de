// Package lockfile manages the sidecar lock markers that flag a media file as
// being transcribed.
//
// A marker lives next to its input with the same stem and the configured lock
// extension. Its existence is the lock: discovery skips any file whose marker
// is present. Acquisition uses an exclusive create, so two concurrent runs
// cannot both claim the same file. While held, the owning process also keeps
// an OS advisory lock on the marker, which lets Inspect distinguish a live
// lock from a stale marker left behind by a crashed run.
package lockfile
