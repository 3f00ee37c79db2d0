/*
Package motionskel extracts the skeleton of moving objects from a sequence of video frames.

Every frame goes through the same chain: the previous frame is subtracted to isolate motion,
the difference is reduced to a single channel, binarized against a fixed threshold and cleaned
with a median filter. The resulting mask is then thinned by repeatedly removing boundary pixels
whose crossing number shows they are redundant, until a pass removes nothing or the iteration
cap is reached. What remains is a one pixel wide skeleton of the moving object.

The package provides a command line interface processing frame directories and animated GIFs.
To check the supported commands type:

	$ motionskel --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/motionskel"
	)

	func main() {
		p := motionskel.DefaultProcessor()

		for _, frame := range frames {
			res, err := p.Process(frame)
			if err != nil {
				fmt.Printf("Error processing frame: %s", err.Error())
				return
			}
			if !res.Converged {
				fmt.Printf("thinning stopped after %d iterations", res.Iterations)
			}
		}
	}
*/
package motionskel
