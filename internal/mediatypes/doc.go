// Package mediatypes defines the image formats the indexer recognises.
//
// It is a dependency-free leaf so that the extractor, the store and the
// scanner can share one notion of "is this an image" without import cycles.
//
// Detection is two-step: the scanner uses IsImagePath on the extension to
// decide which files to hand to the extractor, and the extractor confirms
// the format from the decoded header via FormatForDecoder.
package mediatypes
