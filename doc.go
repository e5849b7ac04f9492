/*
go-eastlite is an OCR preprocessing and text region detection pipeline
built around the EAST text detector.  It runs the frozen EAST graph
through OpenCV's DNN module, decodes the detector's confidence and
geometry output maps into axis aligned bounding boxes, suppresses
overlapping duplicates, then crops the surviving regions from the source
image for recognition with Tesseract.

The root package wraps the detector runtime and the raw output tensors.
Decoding and Non-Maximum Suppression live in the postprocess package,
coordinate rescaling and region cropping in the roi package, and text
recognition in the recognise package.

See example code and usage in the example subdirectory.
*/
package eastlite
