// Package queue persists tracks and processed screenshots in SQLite and
// exposes helpers for driving their lifecycle.
//
// A track starts as a raw OCR line (pending), is resolved by search (found or
// not_found), and ends as an mp3 on disk (downloaded) or as failed once its
// download attempts run out. Raw text is unique so the same line read from
// several screenshots is stored once; the video id is unique so two spellings
// that resolve to the same recording are downloaded once.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package queue
