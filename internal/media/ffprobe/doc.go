// Package ffprobe wraps the ffprobe CLI so downloaded files can be checked
// for a real mp3 audio stream before they are moved into the library.
package ffprobe
