// This file replaces the teacher's debug.go, which mixed scene-traversal
// timing, screenshot capture, and synthetic pointer-event injection for
// Node/Scene hit-testing (debug.go's debugStats, Scene.Screenshot,
// InjectPress/InjectDrag, TestRunner). Timing and screenshot capture were
// adapted into host/ebitenhost/debug.go, which owns the actual frame loop
// and GPU image; the injection/TestRunner machinery is not carried
// forward — it exists to drive hit-testing against a Node tree, and this
// renderer has no node tree. Input drives a Camera directly, and that
// surface (Pan/ZoomAt/RotateAndTilt) is already trivial to call from a
// test without a scripted-JSON replay layer.
package vectormap

import "github.com/tilerender/vectormap/tilestore"

// SetDebug gates verbose diagnostic logging in package tilestore (fetch
// errors, malformed tiles, tessellator failures — all "logged, not
// fatal" per the renderer's error taxonomy), mirroring the teacher's
// package-level debug flag rather than pulling in a structured logging
// library.
func SetDebug(enabled bool) {
	tilestore.SetDebug(enabled)
}
