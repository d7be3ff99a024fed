// Package language normalizes stream language tags to ISO 639-1 codes.
//
// Containers label tracks with a mix of ISO 639-2 terminology and
// bibliographic codes, IETF tags and the occasional English word. Normalize
// folds all of them onto the two-letter base language so that index documents
// carry a single spelling per language.
package language
