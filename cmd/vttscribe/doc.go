// Command vttscribe transcribes audio and video files into WebVTT subtitles.
//
// Running vttscribe with paths processes every eligible file once and exits.
// Subcommands inspect what a run would do (scan), manage lock markers
// (locks), keep watching directories for new media (watch), post-process
// existing subtitles (tidy), check the environment (doctor), and manage the
// configuration file (config).
package main
