// Package cvnet classifies digits with an OpenCV DNN network (for
// example an ONNX export of an MNIST model).
//
// The backend needs cgo and OpenCV and is only compiled with the gocv
// build tag; importing the package without the tag is a no-op and the
// "cvnet" classifier is simply not registered.
package cvnet
