// Package fileid keeps the Telegram file identifiers of audio files that were
// already uploaded, so a clip is sent by reference instead of being uploaded
// again. The mapping is held in memory and rewritten as a whole to a JSON
// document on every change.
package fileid
