// vdp_gpu_capability.go - Vulkan renderer capability query (spec.md §4.7)

package saturn

// vulkanHybridCapabilities is what the hybrid-upscale renderer reports once
// Vulkan initialization has succeeded. Full GPU mode is an explicit open
// question the spec leaves optional (spec.md §9); this implementation omits
// it, so SupportsFullPipeline is always false. No FXAA/RCAS pass runs, so
// SupportsAntiAliasing is false as well.
var vulkanHybridCapabilities = RendererCapabilities{
	SupportsInternalUpscale:  true,
	SupportsAntiAliasing:     false,
	SupportsTextureFiltering: true,
	SupportsFullPipeline:     false,
	MaxTextureDimension:      8192,
	MaxInternalScale:         8,
}

// vulkanUnavailableCapabilities is reported when Vulkan init failed and the
// renderer has silently degraded to software-only output (spec.md §7 GPU
// resource failure policy).
var vulkanUnavailableCapabilities = RendererCapabilities{
	MaxTextureDimension: 0,
	MaxInternalScale:    1,
}
