// Package fileutil holds small filesystem helpers shared by the subtitle
// writers.
package fileutil
