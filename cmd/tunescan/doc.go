// Command tunescan turns screenshots of song lists into a tagged mp3 library.
//
// Drop screenshots into the input directory and run:
//
//	tunescan run
//
// Each phase is also available alone (scan, search, download), watch keeps
// running and processes new screenshots as they arrive, and the queue and
// images command groups inspect or repair the database.
package main
