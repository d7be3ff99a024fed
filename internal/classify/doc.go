// Package classify groups probe track descriptors into a typed Item and
// derives its dex type from the audio, video and text stream counts.
package classify
