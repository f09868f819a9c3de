// Package subprocess implements the engine that hands the whole file to an
// MLX whisper interpreter process. The process writes the subtitle file
// itself; progress is scraped from the percent prefix of its stderr lines.
package subprocess
