// Package level loads wall layouts for the arena.
//
// A level file is plain text, one line per row; '#' marks a wall and any
// other character is open floor. Rows and columns beyond the world size are
// ignored, missing ones are open.
package level

import (
	"bufio"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// Default is the level the world starts on.
	Default = "level1"

	wallChar = '#'
	fileExt  = ".txt"
)

//go:embed levels/*.txt
var builtin embed.FS

// Point is a wall cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Level is an immutable wall grid.
type Level struct {
	name   string
	width  int
	height int
	grid   []bool
	walls  []Point
}

// View is the client-facing JSON shape of a level.
type View struct {
	Name     string  `json:"name"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Walls    []Point `json:"walls"`
	Checksum string  `json:"checksum"`
}

// Empty returns a level without walls.
func Empty(name string, width, height int) *Level {
	return &Level{
		name:   name,
		width:  width,
		height: height,
		grid:   make([]bool, max(width, 0)*max(height, 0)),
		walls:  []Point{},
	}
}

// Parse reads a level from r, clipped to width x height.
func Parse(name string, r io.Reader, width, height int) (*Level, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}

	l := Empty(name, width, height)
	sc := bufio.NewScanner(r)
	for y := 0; y < height && sc.Scan(); y++ {
		line := strings.TrimRight(sc.Text(), "\r")
		for x := 0; x < min(len(line), width); x++ {
			if line[x] == wallChar {
				l.grid[y*width+x] = true
				l.walls = append(l.walls, Point{X: x, Y: y})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse level %q: %w", name, err)
	}

	return l, nil
}

func (l *Level) Name() string { return l.name }
func (l *Level) Width() int   { return l.width }
func (l *Level) Height() int  { return l.height }

// IsWall reports a wall at (x,y). Out of bounds is not a wall.
func (l *Level) IsWall(x, y int) bool {
	if !l.inBounds(x, y) {
		return false
	}
	return l.grid[y*l.width+x]
}

// IsWalkable reports an in-bounds cell without a wall.
func (l *Level) IsWalkable(x, y int) bool {
	return l.inBounds(x, y) && !l.grid[y*l.width+x]
}

// Walls returns the wall cells in row-major order.
func (l *Level) Walls() []Point {
	out := make([]Point, len(l.walls))
	copy(out, l.walls)
	return out
}

// Checksum fingerprints the dimensions and wall layout, so clients can
// tell whether a cached copy is stale.
func (l *Level) Checksum() uint64 {
	d := xxhash.New()

	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(l.width))
	binary.LittleEndian.PutUint32(dims[4:], uint32(l.height))
	_, _ = d.Write(dims[:])

	row := make([]byte, l.width)
	for y := 0; y < l.height; y++ {
		for x := 0; x < l.width; x++ {
			row[x] = 0
			if l.grid[y*l.width+x] {
				row[x] = 1
			}
		}
		_, _ = d.Write(row)
	}

	return d.Sum64()
}

func (l *Level) View() View {
	return View{
		Name:     l.name,
		Width:    l.width,
		Height:   l.height,
		Walls:    l.Walls(),
		Checksum: fmt.Sprintf("%016x", l.Checksum()),
	}
}

func (l *Level) inBounds(x, y int) bool {
	return x >= 0 && x < l.width && y >= 0 && y < l.height
}

// Next is the level after name in the rotation.
func Next(name string) string {
	if name == "level1" {
		return "level2"
	}
	return "level1"
}

// Loader resolves level names to files, either from a directory or from
// the levels compiled into the binary.
type Loader struct {
	fsys fs.FS
}

// NewLoader reads levels from dir, or the built-in set when dir is empty.
func NewLoader(dir string) *Loader {
	if dir == "" {
		sub, _ := fs.Sub(builtin, "levels")
		return &Loader{fsys: sub}
	}
	return &Loader{fsys: os.DirFS(dir)}
}

func (ld *Loader) Load(name string, width, height int) (*Level, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != path.Clean(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevelName, name)
	}

	f, err := ld.fsys.Open(name + fileExt)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, name)
		}
		return nil, fmt.Errorf("open level %q: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	return Parse(name, f, width, height)
}
