package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/uniqlow/meshoptimizer"
)

// ConfigWrapper is the top-level gcfg structure of a simplify config file.
type ConfigWrapper struct {
	Simplify SimplifyConfig
}

type SimplifyConfig struct {
	// Input and Output are Wavefront OBJ paths. Only positions and faces
	// are carried over; faces with more than three corners are
	// triangulated as fans.
	Input  string
	Output string

	// Mode selects the reducer: "Quadric" (default) or "Sloppy".
	Mode string

	// TargetRatio is the fraction of input indices to keep. Ignored when
	// TargetIndexCount is set.
	TargetRatio float64

	// TargetIndexCount is the absolute index target. Zero means use
	// TargetRatio.
	TargetIndexCount int

	// TargetError caps the quadric error of any single collapse in
	// Quadric mode. Zero means unbounded.
	TargetError float64

	// FilterDuplicates drops repeated output triangles in Sloppy mode.
	FilterDuplicates bool
}

func DefaultConfigWrapper() *ConfigWrapper {
	return &ConfigWrapper{
		Simplify: SimplifyConfig{
			Mode:        "Quadric",
			TargetRatio: 0.5,
		},
	}
}

func (con *SimplifyConfig) ValidInput() bool {
	if con.Input == "" || con.Output == "" {
		return false
	}
	if con.Mode != "Quadric" && con.Mode != "Sloppy" {
		return false
	}
	if con.TargetIndexCount < 0 || con.TargetError < 0 {
		return false
	}
	if con.TargetIndexCount == 0 &&
		(con.TargetRatio <= 0 || con.TargetRatio > 1) {
		return false
	}
	return true
}

const exampleConfig = `[Simplify]

# Input and Output are Wavefront OBJ files. Only vertex positions and
# faces are read; larger faces are triangulated as fans.
Input  = bunny.obj
Output = bunny_lod.obj

# Mode is Quadric (error-ordered edge collapses) or Sloppy (grid
# clustering; faster, coarser).
Mode = Quadric

# Keep this fraction of the input indices. TargetIndexCount overrides
# the ratio when nonzero.
TargetRatio = 0.25
# TargetIndexCount = 3000

# Maximum quadric error per collapse in Quadric mode; 0 = unbounded.
# Positions are rescaled into the unit cube before errors are measured.
TargetError = 0

# Drop duplicate output triangles in Sloppy mode.
FilterDuplicates = false`

func main() {
	var simplifyStr, example string

	flag.StringVar(
		&simplifyStr, "Simplify", "",
		"Configuration file for [Simplify] mode.",
	)
	flag.StringVar(
		&example, "ExampleConfig", "",
		"Prints an example configuration file to stdout. The only "+
			"accepted argument is 'Simplify'.",
	)

	flag.Parse()

	switch {
	case example != "":
		if example != "Simplify" {
			log.Fatalf("Unknown config type '%s'.", example)
		}
		fmt.Println(exampleConfig)

	case simplifyStr != "":
		wrap := DefaultConfigWrapper()
		err := gcfg.ReadFileInto(wrap, simplifyStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.Simplify

		if !con.ValidInput() {
			log.Fatalf("Invalid [Simplify] config in '%s'.", simplifyStr)
		}

		if err := simplifyMain(con); err != nil {
			log.Fatal(err.Error())
		}

	default:
		log.Fatal("Either -Simplify or -ExampleConfig must be given.")
	}
}

func simplifyMain(con *SimplifyConfig) error {
	positions, indices, err := readObj(con.Input)
	if err != nil {
		return err
	}

	vertexCount := len(positions) / 3

	target := con.TargetIndexCount
	if target == 0 {
		target = int(float64(len(indices)) * con.TargetRatio)
		target -= target % 3
	}
	if target > len(indices) {
		target = len(indices)
	}

	targetError := float32(con.TargetError)
	if targetError == 0 {
		targetError = math.MaxFloat32
	}

	destination := make([]uint32, len(indices))

	var write int
	switch con.Mode {
	case "Quadric":
		write, err = meshoptimizer.Simplify(
			destination, indices, positions,
			vertexCount, 12, target, targetError,
		)
	case "Sloppy":
		if con.FilterDuplicates {
			write, err = meshoptimizer.SimplifySloppyFiltered(
				destination, indices, positions,
				vertexCount, 12, target, targetError,
			)
		} else {
			write, err = meshoptimizer.SimplifySloppy(
				destination, indices, positions,
				vertexCount, 12, target, targetError,
			)
		}
	}
	if err != nil {
		return err
	}

	log.Printf(
		"%s: %d -> %d triangles (target %d)",
		con.Input, len(indices)/3, write/3, target/3,
	)

	return writeObj(con.Output, positions, destination[:write])
}

// readObj reads vertex positions and triangulated faces out of a
// Wavefront OBJ file. Normals, texture coordinates, materials and
// groupings are skipped.
func readObj(fname string) (positions []float32, indices []uint32, err error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf(
					"%s:%d: vertex with %d coordinates",
					fname, line, len(fields)-1,
				)
			}
			for _, field := range fields[1:4] {
				x, err := strconv.ParseFloat(field, 32)
				if err != nil {
					return nil, nil, fmt.Errorf(
						"%s:%d: %v", fname, line, err,
					)
				}
				positions = append(positions, float32(x))
			}

		case "f":
			corners := fields[1:]
			if len(corners) < 3 {
				return nil, nil, fmt.Errorf(
					"%s:%d: face with %d corners", fname, line, len(corners),
				)
			}

			vertexCount := len(positions) / 3
			idxs := make([]uint32, len(corners))
			for i, corner := range corners {
				idx, err := parseObjIndex(corner, vertexCount)
				if err != nil {
					return nil, nil, fmt.Errorf(
						"%s:%d: %v", fname, line, err,
					)
				}
				idxs[i] = idx
			}

			// triangulate as a fan
			for i := 2; i < len(idxs); i++ {
				indices = append(indices, idxs[0], idxs[i-1], idxs[i])
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return positions, indices, nil
}

// parseObjIndex resolves one face corner, "7", "7/1" or "7//2", into a
// zero-based vertex index. Negative references count back from the end of
// the vertex list.
func parseObjIndex(corner string, vertexCount int) (uint32, error) {
	if slash := strings.IndexByte(corner, '/'); slash != -1 {
		corner = corner[:slash]
	}

	idx, err := strconv.Atoi(corner)
	if err != nil {
		return 0, err
	}

	switch {
	case idx > 0 && idx <= vertexCount:
		return uint32(idx - 1), nil
	case idx < 0 && -idx <= vertexCount:
		return uint32(vertexCount + idx), nil
	}

	return 0, fmt.Errorf("face index %d out of range", idx)
}

// writeObj writes the simplified mesh, compacting away vertices that no
// triangle references any more.
func writeObj(fname string, positions []float32, indices []uint32) error {
	vertexCount := len(positions) / 3

	used := make([]uint32, vertexCount)
	for i := range used {
		used[i] = ^uint32(0)
	}

	next := uint32(0)
	for _, idx := range indices {
		if used[idx] == ^uint32(0) {
			used[idx] = next
			next++
		}
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	// vertices are emitted in first-use order so the compacted indices
	// stay dense
	order := make([]uint32, next)
	for idx, compact := range used {
		if compact != ^uint32(0) {
			order[compact] = uint32(idx)
		}
	}

	for _, idx := range order {
		v := positions[idx*3 : idx*3+3]
		if _, err := fmt.Fprintf(w, "v %g %g %g\n", v[0], v[1], v[2]); err != nil {
			return err
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		_, err := fmt.Fprintf(
			w, "f %d %d %d\n",
			used[indices[i]]+1, used[indices[i+1]]+1, used[indices[i+2]]+1,
		)
		if err != nil {
			return err
		}
	}

	return w.Flush()
}
