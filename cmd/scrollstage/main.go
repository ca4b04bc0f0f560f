// Package main provides the scrollstage CLI.
//
// It runs a layout in a window, validates layout files, calibrates the
// reveal threshold for other surface sizes, and traces region progress
// headlessly over a scroll range.
//
// Usage:
//
//	scrollstage run [--layout file] [--script file]
//	scrollstage validate [file]
//	scrollstage calibrate --sizes 200,288,400
//	scrollstage trace --from 0 --to 6000 --step 250
//
// See --help for all available options.
package main

func main() {
	Execute()
}
