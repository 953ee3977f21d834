// vdp_vdp1.go - VDP1 command-list rasterization (spec.md §4.6)
//
// VDP1 draws sprites, polygons, and lines by walking a list of fixed-shape
// commands into its own sprite framebuffer. The command memory walk itself
// (raw word decode against the real hardware's command table) is not
// reproduced here bit-for-bit; commands are already-decoded structs, which
// keeps the rasterizer the part under test rather than the command-table
// bit-twiddling.

package saturn

// VDP1CommandType names one of VDP1's drawing primitives.
type VDP1CommandType int

const (
	VDP1Normal VDP1CommandType = iota
	VDP1Scaled
	VDP1Distorted
	VDP1Polygon
	VDP1Gouraud
	VDP1Line
	VDP1Polyline
)

// VDP1Vertex is one corner of a quad/polygon/line command, in VDP1 sprite
// framebuffer coordinates.
type VDP1Vertex struct {
	X, Y  int32
	Color uint32 // XRGB8888, used directly for solid/Gouraud fills
}

// VDP1Command is one decoded entry of the command list.
type VDP1Command struct {
	Type     VDP1CommandType
	Vertices [4]VDP1Vertex // quads use all four; lines use the first two
	Texture  []uint32      // nil for solid/Gouraud; sampled for sprite forms
	TexW     int
	TexH     int
}

// VDP1State holds the command list and the sprite-layer framebuffer VDP2
// composites on top of.
type VDP1State struct {
	Commands []VDP1Command
	Width    int
	Height   int
	sprite   []uint32 // XRGB8888, Width*Height; 0 alpha-channel bit unused, transparency tracked separately
	covered  []bool   // per-pixel: did any command write here
}

// NewVDP1State allocates a sprite framebuffer of the given dimensions.
func NewVDP1State(width, height int) *VDP1State {
	return &VDP1State{
		Width:   width,
		Height:  height,
		sprite:  make([]uint32, width*height),
		covered: make([]bool, width*height),
	}
}

// SetCommandList replaces the command list for the next rasterization pass.
func (v *VDP1State) SetCommandList(cmds []VDP1Command) { v.Commands = cmds }

// Rasterize walks the command list and draws into the sprite framebuffer,
// clearing it first (VDP1 erase happens once per frame in real hardware,
// driven by its own erase-write command; folded into Rasterize here since
// the erase command's only externally visible effect is "framebuffer starts
// blank").
func (v *VDP1State) Rasterize() {
	for i := range v.sprite {
		v.sprite[i] = 0
		v.covered[i] = false
	}
	for _, cmd := range v.Commands {
		switch cmd.Type {
		case VDP1Line, VDP1Polyline:
			v.rasterizeLine(cmd.Vertices[0], cmd.Vertices[1])
		case VDP1Normal, VDP1Scaled, VDP1Distorted:
			v.rasterizeTexturedQuad(cmd)
		default: // Polygon, Gouraud
			v.rasterizeSolidQuad(cmd)
		}
	}
}

func (v *VDP1State) setPixel(x, y int32, color uint32) {
	if x < 0 || y < 0 || int(x) >= v.Width || int(y) >= v.Height {
		return
	}
	idx := int(y)*v.Width + int(x)
	v.sprite[idx] = color
	v.covered[idx] = true
}

// rasterizeSolidQuad fills the bounding box of the four vertices, Gouraud
// shading linearly from the first vertex's color at the top row to the
// last vertex's color at the bottom row, one color per scanline,
// when the command type is Gouraud (cheap approximation: per-scanline
// interpolation rather than full barycentric shading).
func (v *VDP1State) rasterizeSolidQuad(cmd VDP1Command) {
	minX, minY, maxX, maxY := quadBounds(cmd.Vertices)
	topColor, botColor := cmd.Vertices[0].Color, cmd.Vertices[len(cmd.Vertices)-1].Color
	span := maxY - minY
	for y := minY; y <= maxY; y++ {
		t := 0.0
		if span > 0 {
			t = float64(y-minY) / float64(span)
		}
		color := topColor
		if cmd.Type == VDP1Gouraud {
			color = lerpColor(topColor, botColor, t)
		}
		for x := minX; x <= maxX; x++ {
			v.setPixel(x, y, color)
		}
	}
}

// rasterizeTexturedQuad maps the command's texture across its bounding box
// with plain nearest-neighbor sampling; scaled/distorted forms differ from
// "normal" only in how their four vertices were placed, which the caller
// already resolved before building the command.
func (v *VDP1State) rasterizeTexturedQuad(cmd VDP1Command) {
	if len(cmd.Texture) == 0 || cmd.TexW == 0 || cmd.TexH == 0 {
		return
	}
	minX, minY, maxX, maxY := quadBounds(cmd.Vertices)
	w, h := maxX-minX+1, maxY-minY+1
	if w <= 0 || h <= 0 {
		return
	}
	for y := minY; y <= maxY; y++ {
		v0 := int((y - minY) * int32(cmd.TexH) / h)
		for x := minX; x <= maxX; x++ {
			u0 := int((x - minX) * int32(cmd.TexW) / w)
			texel := cmd.Texture[v0*cmd.TexW+u0]
			if texel&0xFF000000 == 0 { // alpha-zero texel: transparent, VDP1's "end code"
				continue
			}
			v.setPixel(x, y, texel)
		}
	}
}

func (v *VDP1State) rasterizeLine(a, b VDP1Vertex) {
	dx, dy := absInt32(b.X-a.X), -absInt32(b.Y-a.Y)
	sx, sy := int32(1), int32(1)
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		v.setPixel(x, y, a.Color)
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func quadBounds(verts [4]VDP1Vertex) (minX, minY, maxX, maxY int32) {
	minX, minY = verts[0].X, verts[0].Y
	maxX, maxY = verts[0].X, verts[0].Y
	for _, p := range verts {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func lerpColor(a, b uint32, t float64) uint32 {
	ar, ag, ab := (a>>16)&0xFF, (a>>8)&0xFF, a&0xFF
	br, bg, bb := (b>>16)&0xFF, (b>>8)&0xFF, b&0xFF
	r := uint32(float64(ar)+t*(float64(br)-float64(ar)))
	g := uint32(float64(ag)+t*(float64(bg)-float64(ag)))
	bl := uint32(float64(ab)+t*(float64(bb)-float64(ab)))
	return r<<16 | g<<8 | bl
}
