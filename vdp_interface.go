// vdp_interface.go - common renderer contract shared by the software and
// GPU implementations (spec.md §9 "dynamic dispatch of heterogeneous
// hardware": a sum type over {Software, Vulkan} behind one capability set).

package saturn

// PixelFormat names a framebuffer's pixel encoding (spec.md §6).
type PixelFormat int

const (
	PixelFormatXRGB8888 PixelFormat = iota
	PixelFormatRGB565
)

// FilterMode selects the GPU upscale pass's sampling kernel.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterBilinear
	FilterSharpBilinear
)

// SharpenMode selects the optional second-pass post-process filter.
type SharpenMode int

const (
	SharpenNone SharpenMode = iota
	SharpenFXAA
	SharpenRCAS
)

// RendererCapabilities is the capability query spec.md §4.7 requires the
// orchestrator be able to ask any renderer implementation.
type RendererCapabilities struct {
	SupportsInternalUpscale bool
	SupportsAntiAliasing    bool
	SupportsTextureFiltering bool
	SupportsFullPipeline    bool
	MaxTextureDimension     int
	MaxInternalScale        int
}

// RenderedFrame is what a renderer hands back to the orchestrator once a
// frame's video callback has fired: an owned, ready-to-read buffer.
type RenderedFrame struct {
	Pixels []byte
	Width  int
	Height int
	Pitch  int
	Format PixelFormat
}

// VDPRenderer is implemented by both the software path (vdp_software.go)
// and the Vulkan hybrid-upscale path (vdp_gpu_vulkan.go). The orchestrator
// holds exactly one, created in Initialize and replaceable through
// SetRendererType (spec.md §9).
type VDPRenderer interface {
	// RenderFrame walks VDP1 command memory and VDP2 register/VRAM state
	// and produces one composited frame.
	RenderFrame(vdp1 *VDP1State, vdp2 *VDP2State) (RenderedFrame, error)
	Capabilities() RendererCapabilities
	SetUpscaleFactor(factor int)
	SetFilterMode(mode FilterMode)
	SetSharpenMode(mode SharpenMode)
	// Close releases any backing resources (GPU objects, threads) in the
	// implementation's required destruction order.
	Close() error
}
