// Package render turns animation frames into images and files.
//
//   - [Plotter]: draws a frame with gonum/plot and rasterises it
//   - [GIFEncoder]: writes the rendered frames as one animated GIF
//   - [FrameDir]: keeps every frame as a numbered PNG
//   - [Report]: interactive HTML summary of peak heights per frame
package render
