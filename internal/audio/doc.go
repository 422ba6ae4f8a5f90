// Package audio finds the Age of Empires II clips the bot can send. Files
// live flat in a single directory and are told apart by their names: sound
// quotes are WAV files, taunts are MP3 files starting with a two-digit
// number and civilization jingles are MP3 files named after the
// civilization.
package audio
