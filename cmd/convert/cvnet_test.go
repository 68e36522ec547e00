//go:build gocv

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juruen/inkmath/classifier"
)

func TestOpenCVBackendRegistered(t *testing.T) {
	assert.Contains(t, classifier.Kinds(), "cvnet")
}
