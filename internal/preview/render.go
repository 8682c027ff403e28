package preview

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
)

// Options controls the rendered image
type Options struct {
	Size        int
	Supersample int
}

// DefaultOptions renders 1024px square at 2x supersampling
func DefaultOptions() Options {
	return Options{Size: 1024, Supersample: 2}
}

var (
	background   = color.RGBA{0xf4, 0xf4, 0xf2, 0xff}
	wallOutline  = color.RGBA{0x9a, 0x9a, 0x9a, 0xff}
	objectFill   = color.RGBA{0x4a, 0x78, 0xb0, 0xff}
	lockedFill   = color.RGBA{0x2e, 0x4a, 0x6e, 0xff}
	objectStroke = color.RGBA{0x1c, 0x2c, 0x40, 0xff}

	// Palette holds the anchor colours, indexed by Anchor.ColorIndex
	Palette = [calibration.PaletteSize]color.RGBA{
		{0xe0, 0x4b, 0x3a, 0xff},
		{0x3a, 0xb0, 0x5c, 0xff},
		{0xf0, 0xb4, 0x29, 0xff},
		{0x9b, 0x4d, 0xc4, 0xff},
	}
)

// frame maps world points into the 2D view plane
type frame struct {
	origin geometry.Vector3
	basis  geometry.Basis3
}

func (f frame) flat(p geometry.Vector3) geometry.Vector3 {
	l := f.basis.ToLocal(f.origin, p)
	l.Z = 0
	return l
}

// viewFrame looks at the calibrated wall, or the first object while the
// wall is uncalibrated
func viewFrame(snap calibration.Snapshot) frame {
	if snap.Wall.IsCalibrated {
		return frame{origin: snap.Wall.Plane.Point, basis: snap.Wall.Basis}
	}
	if len(snap.Objects) > 0 {
		return frame{origin: snap.Objects[0].Center, basis: snap.Objects[0].Basis}
	}
	return frame{basis: geometry.IdentityBasis()}
}

// wallCorners are the calibrated extents: the plane point is the top-left
// sample, width runs along right and height runs down
func wallCorners(w calibration.WallCalibration) [4]geometry.Vector3 {
	p := w.Plane.Point
	r := w.Basis.Right.Mul(w.Width)
	d := w.Basis.Up.Mul(-w.Height)
	return [4]geometry.Vector3{p, p.Add(r), p.Add(r).Add(d), p.Add(d)}
}

// canvas maps view-plane coordinates to pixels
type canvas struct {
	img   *image.RGBA
	ras   *vector.Rasterizer
	scale float64
	minX  float64
	maxY  float64
	offX  float64
	offY  float64
}

func (c *canvas) px(p geometry.Vector3) (float32, float32) {
	x := (p.X-c.minX)*c.scale + c.offX
	y := (c.maxY-p.Y)*c.scale + c.offY
	return float32(x), float32(y)
}

func (c *canvas) fill(pts []geometry.Vector3, col color.Color) {
	if len(pts) < 3 {
		return
	}
	b := c.img.Bounds()
	c.ras.Reset(b.Dx(), b.Dy())
	x, y := c.px(pts[0])
	c.ras.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = c.px(p)
		c.ras.LineTo(x, y)
	}
	c.ras.ClosePath()
	c.ras.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// stroke draws a closed outline width pixels wide
func (c *canvas) stroke(pts []geometry.Vector3, width float64, col color.Color) {
	half := width / 2 / c.scale
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dir := b.Sub(a)
		if dir.Length() == 0 {
			continue
		}
		n := geometry.NewVector3(-dir.Y, dir.X, 0).Normalize().Mul(half)
		c.fill([]geometry.Vector3{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}, col)
	}
}

func (c *canvas) dot(center geometry.Vector3, radius float64, col color.Color) {
	const segments = 24
	r := radius / c.scale
	pts := make([]geometry.Vector3, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segments
		pts[i] = center.Add(geometry.NewVector3(r*math.Cos(a), r*math.Sin(a), 0))
	}
	c.fill(pts, col)
}

// Render draws the wall, visible objects and their anchors as seen face-on
func Render(snap calibration.Snapshot, opts Options) *image.RGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	full := opts.Size * opts.Supersample

	big := image.NewRGBA(image.Rect(0, 0, full, full))
	draw.Draw(big, big.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	f := viewFrame(snap)
	var wall []geometry.Vector3
	if snap.Wall.IsCalibrated && snap.Wall.Visible {
		for _, p := range wallCorners(snap.Wall) {
			wall = append(wall, f.flat(p))
		}
	}
	type shape struct {
		corners []geometry.Vector3
		obj     calibration.SpatialObject
	}
	var shapes []shape
	bounds := geometry.NewBoundingBox()
	bounds.Extend(wall...)
	for _, obj := range snap.Objects {
		if !obj.Visible {
			continue
		}
		s := shape{obj: obj}
		for _, p := range obj.AllCorners() {
			s.corners = append(s.corners, f.flat(p))
		}
		bounds.Extend(s.corners...)
		shapes = append(shapes, s)
	}

	if bounds.IsEmpty() {
		return downsample(big, opts.Size)
	}
	size := bounds.Size()
	extent := math.Max(size.X, size.Y)
	if extent == 0 {
		extent = 1
	}
	bounds = bounds.Pad(extent * 0.08)
	size = bounds.Size()
	extent = math.Max(size.X, size.Y)

	c := &canvas{
		img:   big,
		ras:   vector.NewRasterizer(full, full),
		scale: float64(full) / extent,
		minX:  bounds.Min.X,
		maxY:  bounds.Max.Y,
	}
	c.offX = (extent - size.X) * c.scale / 2
	c.offY = (extent - size.Y) * c.scale / 2

	line := float64(opts.Supersample) * 2
	if wall != nil {
		c.stroke(wall, line, wallOutline)
	}
	for _, s := range shapes {
		fillColor := objectFill
		if s.obj.Locked {
			fillColor = lockedFill
		}
		c.fill(s.corners, fillColor)
		c.stroke(s.corners, line, objectStroke)
		for _, a := range s.obj.Anchors {
			col := Palette[int(a.ColorIndex)%len(Palette)]
			c.dot(f.flat(s.obj.AnchorWorld(a)), line*3, col)
		}
	}
	return downsample(big, opts.Size)
}

// downsample scales the supersampled canvas to the target size
func downsample(img *image.RGBA, targetSize int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() <= targetSize && b.Dy() <= targetSize {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
