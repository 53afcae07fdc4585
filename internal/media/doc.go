// Package media extracts metadata from generated image files.
//
// An Extractor reads a file once and derives, from its bytes alone:
//   - format, MIME type and (orientation-corrected) dimensions
//   - a BLAKE2b-256 checksum used to detect content changes
//   - the EXIF capture time for JPEG and TIFF
//   - generation parameters embedded by image generators, from PNG text
//     chunks (tEXt, zTXt, iTXt) or the EXIF UserComment
//
// Two conventions for generation parameters are recognised: the A1111/Forge
// "parameters" text block and ComfyUI's "prompt"/"workflow" JSON. Every text
// chunk is also kept verbatim in Generation.Raw.
package media
