// Package download turns a YouTube video id into an mp3 in the library.
//
// A direct audio stream URL is resolved with yt-dlp or natively, ffmpeg
// transcodes it into a hidden temp file inside the library directory, and the
// result is size-checked (and optionally probed) before it is renamed into
// place. Nothing half-written ever carries the final file name.
package download
