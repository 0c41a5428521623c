// Package wordcloud renders word-frequency images.
//
// Layout follows the usual word cloud approach: words are placed from most to least
// frequent, each sized by its frequency relative to the previous word, at the first
// free spot of a spiral walk that starts from a random point. Occupancy is tracked
// per pixel of the drawn glyphs through a summed-area table, so a rectangle check
// costs four lookups.
package wordcloud

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"math/rand"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrNoWords is returned when the input text has no word left to draw.
var ErrNoWords = errors.New("no words to draw")

// Options control tokenization and layout.
type Options struct {
	Width  int
	Height int
	// MaxWords caps the number of distinct words; 0 keeps all.
	MaxWords    int
	MinFontSize int
	// MaxFontSize is the size of the most frequent word; 0 uses Height.
	MaxFontSize int
	FontStep    int
	// PreferHorizontal is the probability that a word is tried horizontally first.
	PreferHorizontal float64
	// RelativeScaling weighs frequency against rank when sizing words, in [0, 1].
	RelativeScaling float64
	Seed            int64
	Background      color.Color
	// Stopwords replaces the default set when non-nil.
	Stopwords map[string]struct{}
	// Font defaults to Go Regular.
	Font *opentype.Font
}

// DefaultOptions returns a 400x200 canvas on white.
func DefaultOptions() Options {
	return Options{
		Width:            400,
		Height:           200,
		MaxWords:         200,
		MinFontSize:      4,
		FontStep:         1,
		PreferHorizontal: 0.9,
		RelativeScaling:  0.5,
		Seed:             1,
		Background:       color.White,
	}
}

// WordCaps lists the selectable word caps: 10, 20, ..., 990.
func WordCaps() []int {
	caps := make([]int, 0, 99)
	for n := 10; n < 1000; n += 10 {
		caps = append(caps, n)
	}
	return caps
}

// ValidWordCap reports whether n is one of WordCaps.
func ValidWordCap(n int) bool {
	return n >= 10 && n < 1000 && n%10 == 0
}

// Placement is a word positioned on the canvas.
type Placement struct {
	Word     string
	Count    int
	FontSize int
	// X, Y is the top-left corner of the word's box.
	X, Y          int
	Width, Height int
	Rotated       bool
	Color         color.RGBA

	mask *image.Alpha
}

var (
	defaultFontOnce sync.Once
	defaultFont     *opentype.Font
	defaultFontErr  error
)

func loadFont(opt Options) (*opentype.Font, error) {
	if opt.Font != nil {
		return opt.Font, nil
	}
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = opentype.Parse(goregular.TTF)
	})
	return defaultFont, defaultFontErr
}

func (o Options) normalized() (Options, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return o, fmt.Errorf("invalid canvas size %dx%d", o.Width, o.Height)
	}
	if o.MinFontSize <= 0 {
		o.MinFontSize = 4
	}
	if o.MaxFontSize <= 0 {
		o.MaxFontSize = o.Height
	}
	if o.MaxFontSize < o.MinFontSize {
		return o, fmt.Errorf("max font size %d below min font size %d", o.MaxFontSize, o.MinFontSize)
	}
	if o.FontStep <= 0 {
		o.FontStep = 1
	}
	if o.RelativeScaling < 0 || o.RelativeScaling > 1 {
		return o, fmt.Errorf("relative scaling %g outside [0, 1]", o.RelativeScaling)
	}
	return o, nil
}

// Layout places words on the canvas. Words that cannot fit at MinFontSize end the
// layout; the placed prefix is returned.
func Layout(words []WordCount, opt Options) ([]Placement, error) {
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	opt, err := opt.normalized()
	if err != nil {
		return nil, err
	}
	f, err := loadFont(opt)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	faces := newFaceCache(f)
	defer faces.close()

	rng := rand.New(rand.NewSource(opt.Seed))
	occ := newOccupancy(opt.Width, opt.Height)
	maxCount := float64(words[0].Count)

	var out []Placement
	fontSize := opt.MaxFontSize
	lastFreq := 1.0
	for _, wc := range words {
		freq := float64(wc.Count) / maxCount
		if freq <= 0 {
			break
		}
		rs := opt.RelativeScaling
		if rs != 0 {
			fontSize = int(math.Round((rs*(freq/lastFreq) + (1 - rs)) * float64(fontSize)))
		}
		rotated := rng.Float64() >= opt.PreferHorizontal
		triedFlip := false

		var (
			mask *image.Alpha
			x, y int
			ok   bool
		)
		for {
			if fontSize < opt.MinFontSize {
				break
			}
			face, err := faces.get(fontSize)
			if err != nil {
				return nil, err
			}
			mask = wordMask(face, wc.Word, rotated)
			if mask != nil {
				x, y, ok = occ.find(mask.Bounds().Dx(), mask.Bounds().Dy(), rng)
				if ok {
					break
				}
			}
			if !triedFlip && opt.PreferHorizontal < 1 {
				rotated = !rotated
				triedFlip = true
				continue
			}
			fontSize -= opt.FontStep
			rotated = rng.Float64() >= opt.PreferHorizontal
			triedFlip = false
		}
		if !ok {
			break
		}

		occ.mark(mask, x, y)
		out = append(out, Placement{
			Word:     wc.Word,
			Count:    wc.Count,
			FontSize: fontSize,
			X:        x,
			Y:        y,
			Width:    mask.Bounds().Dx(),
			Height:   mask.Bounds().Dy(),
			Rotated:  rotated,
			Color:    randomColor(rng),
			mask:     mask,
		})
		lastFreq = freq
	}
	if len(out) == 0 {
		return nil, ErrNoWords
	}
	return out, nil
}

// Render draws the word cloud of text.
func Render(text string, opt Options) (*image.RGBA, error) {
	words := Frequencies(text, opt)
	placements, err := Layout(words, opt)
	if err != nil {
		return nil, err
	}
	bg := opt.Background
	if bg == nil {
		bg = color.White
	}
	img := image.NewRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for _, p := range placements {
		r := image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
		draw.DrawMask(img, r, image.NewUniform(p.Color), image.Point{}, p.mask, image.Point{}, draw.Over)
	}
	return img, nil
}

// WritePNG renders text and encodes it as PNG to w.
func WritePNG(w io.Writer, text string, opt Options) error {
	img, err := Render(text, opt)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func randomColor(rng *rand.Rand) color.RGBA {
	c := colorful.Hsl(float64(rng.Intn(256)), 0.8, 0.5)
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

type faceCache struct {
	font  *opentype.Font
	faces map[int]font.Face
}

func newFaceCache(f *opentype.Font) *faceCache {
	return &faceCache{font: f, faces: map[int]font.Face{}}
}

func (c *faceCache) get(size int) (font.Face, error) {
	if face, ok := c.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face size %d: %w", size, err)
	}
	c.faces[size] = face
	return face, nil
}

func (c *faceCache) close() {
	for _, face := range c.faces {
		_ = face.Close()
	}
}

// wordMask rasterizes word into an alpha mask, rotated 90° counter-clockwise when
// asked. It returns nil for text with no extent.
func wordMask(face font.Face, word string, rotated bool) *image.Alpha {
	m := face.Metrics()
	w := font.MeasureString(face, word).Ceil()
	h := (m.Ascent + m.Descent).Ceil()
	if w <= 0 || h <= 0 {
		return nil
	}
	img := image.NewAlpha(image.Rect(0, 0, w, h))
	d := font.Drawer{Dst: img, Src: image.Opaque, Face: face, Dot: fixed.Point26_6{Y: m.Ascent}}
	d.DrawString(word)
	if !rotated {
		return img
	}
	out := image.NewAlpha(image.Rect(0, 0, h, w))
	for y := 0; y < w; y++ {
		for x := 0; x < h; x++ {
			out.Pix[y*out.Stride+x] = img.Pix[x*img.Stride+(w-1-y)]
		}
	}
	return out
}

// occupancy tracks drawn pixels with a summed-area table.
type occupancy struct {
	w, h     int
	occupied []bool
	integral []int32 // (w+1)*(h+1)
}

func newOccupancy(w, h int) *occupancy {
	return &occupancy{w: w, h: h, occupied: make([]bool, w*h), integral: make([]int32, (w+1)*(h+1))}
}

func (o *occupancy) sum(x, y, w, h int) int32 {
	s := o.w + 1
	return o.integral[(y+h)*s+x+w] - o.integral[y*s+x+w] - o.integral[(y+h)*s+x] + o.integral[y*s+x]
}

// find walks a square spiral from a random start and returns the first position
// where a w x h box covers no drawn pixel.
func (o *occupancy) find(w, h int, rng *rand.Rand) (int, int, bool) {
	maxX, maxY := o.w-w, o.h-h
	if maxX < 0 || maxY < 0 {
		return 0, 0, false
	}
	cx, cy := rng.Intn(maxX+1), rng.Intn(maxY+1)
	free := func(x, y int) bool {
		return x >= 0 && y >= 0 && x <= maxX && y <= maxY && o.sum(x, y, w, h) == 0
	}
	if free(cx, cy) {
		return cx, cy, true
	}
	limit := maxX
	if maxY > limit {
		limit = maxY
	}
	for r := 1; r <= limit; r++ {
		for dx := -r; dx <= r; dx++ {
			if free(cx+dx, cy-r) {
				return cx + dx, cy - r, true
			}
			if free(cx+dx, cy+r) {
				return cx + dx, cy + r, true
			}
		}
		for dy := -r + 1; dy < r; dy++ {
			if free(cx-r, cy+dy) {
				return cx - r, cy + dy, true
			}
			if free(cx+r, cy+dy) {
				return cx + r, cy + dy, true
			}
		}
	}
	return 0, 0, false
}

func (o *occupancy) mark(mask *image.Alpha, x0, y0 int) {
	b := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.Pix[y*mask.Stride+x] > 0 {
				o.occupied[(y0+y)*o.w+x0+x] = true
			}
		}
	}
	s := o.w + 1
	for y := 0; y < o.h; y++ {
		var row int32
		for x := 0; x < o.w; x++ {
			if o.occupied[y*o.w+x] {
				row++
			}
			o.integral[(y+1)*s+x+1] = o.integral[y*s+x+1] + row
		}
	}
}
