// Package ocr reads song listings out of screenshots.
//
// Screenshots are cropped to the list area, converted to grayscale,
// flipped to dark-on-light when taken in dark mode, and binarized with an
// adaptive threshold before tesseract sees them. Tesseract's word boxes are
// then clustered into entries by vertical distance, so a title and the
// artist line printed under it come back as one candidate string.
package ocr
