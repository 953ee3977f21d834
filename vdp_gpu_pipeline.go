// vdp_gpu_pipeline.go - fullscreen-triangle upscale/sharpen pipeline state
// (spec.md §4.7 hybrid upscale mode)

package saturn

// UpscalePushConstants mirrors the push-constant block the upscale
// fullscreen-triangle shader reads: filter selection, scanline/brightness/
// gamma knobs, and the source/destination extents needed to compute UVs
// without a second descriptor set.
type UpscalePushConstants struct {
	Filter       int32
	Scanlines    float32
	Brightness   float32
	Gamma        float32
	SrcW, SrcH   int32
	DstW, DstH   int32
}

// SharpenPushConstants mirrors the second-pass (FXAA/RCAS) shader's
// push-constant block.
type SharpenPushConstants struct {
	Mode  int32
	Sharpness float32
	Width, Height int32
}

// pipelineVariantKey identifies one compiled graphics pipeline variant the
// renderer may need, analogous to the teacher's PipelineKey cache for the
// Voodoo blend/depth state space, but keyed on the much smaller upscale
// parameter space (filter mode, sharpen mode on/off).
type pipelineVariantKey struct {
	filter  FilterMode
	sharpen SharpenMode
}

// resourceGeneration is bumped whenever the upscale factor or source
// resolution changes, so render-target-sized resources know to rebuild at
// the next synchronization point (spec.md §4.7: "only at synchronization
// points, end of a submitted command buffer").
type resourceGeneration struct {
	upscaleFactor int
	srcW, srcH    int
}

func (g resourceGeneration) outdated(factor, srcW, srcH int) bool {
	return g.upscaleFactor != factor || g.srcW != srcW || g.srcH != srcH
}
