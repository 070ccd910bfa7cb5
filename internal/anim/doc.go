// Package anim drives a lineshape animation from a validated dataset to an
// encoded image sequence.
//
// A [Driver] moves through four states:
//
//	Idle → HeightBound → Rendering(0..F−1) → Done
//
// The height bound is estimated once before the first frame and used as the
// fixed y-axis maximum of every frame. Frames are handed to the [Renderer]
// strictly in index order; only the per-particle sampling inside a frame runs
// on worker goroutines. After the last frame the rendered images go to the
// [Encoder] in order.
//
// # Thread Safety
//
// A Driver runs once and is not safe for concurrent use.
package anim
