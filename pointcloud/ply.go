package pointcloud

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PLYFormat selects the on-disk encoding of a written PLY file.
type PLYFormat int

const (
	// PLYAscii writes a human-readable PLY body.
	PLYAscii PLYFormat = 0
	// PLYBinary writes a binary little-endian PLY body.
	PLYBinary PLYFormat = 1
)

const endHeaderMarker = "end_header\n"

// UnsupportedPLYError is returned for well-formed PLY files whose encoding or
// vertex layout this reader cannot handle.
type UnsupportedPLYError struct {
	Reason string
}

func (e *UnsupportedPLYError) Error() string {
	return "unsupported PLY file: " + e.Reason
}

// ReadPLY parses a PLY file into a point cloud. Both ascii and binary
// little-endian bodies are accepted; vertex color properties are carried over
// when present.
func ReadPLY(r io.Reader) (PointCloud, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	header, body, err := parsePLYHeader(raw)
	if err != nil {
		return nil, err
	}
	switch header.format {
	case "ascii":
		return readASCIIPLY(raw)
	case "binary_little_endian":
		return readBinaryPLY(header, body)
	}
	return nil, &UnsupportedPLYError{Reason: fmt.Sprintf("format %q", header.format)}
}

type plyProperty struct {
	name string
	typ  string
}

type plyHeader struct {
	format      string
	vertexCount int
	properties  []plyProperty
}

// parsePLYHeader reads the text header shared by all PLY encodings, returning
// the vertex layout and the undecoded body bytes.
func parsePLYHeader(raw []byte) (*plyHeader, []byte, error) {
	idx := bytes.Index(raw, []byte(endHeaderMarker))
	if idx < 0 {
		return nil, nil, errors.New("PLY file has no end_header line")
	}
	body := raw[idx+len(endHeaderMarker):]

	lines := strings.Split(string(raw[:idx]), "\n")
	if strings.TrimSpace(lines[0]) != "ply" {
		return nil, nil, errors.New("missing ply magic line")
	}
	header := &plyHeader{vertexCount: -1}
	element := ""
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "comment" {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, nil, errors.New("malformed format line")
			}
			header.format = fields[1]
		case "element":
			if len(fields) != 3 {
				return nil, nil, errors.Errorf("malformed element line %q", line)
			}
			element = fields[1]
			if element == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, nil, errors.Errorf("bad vertex count %q", fields[2])
				}
				header.vertexCount = n
			} else if header.vertexCount < 0 && header.format != "ascii" {
				// the vertex stride is unknown until its properties are seen,
				// so a foreign element sitting before it cannot be skipped
				return nil, nil, &UnsupportedPLYError{Reason: fmt.Sprintf("element %q precedes the vertices", element)}
			}
		case "property":
			if element != "vertex" {
				continue
			}
			if fields[1] == "list" {
				return nil, nil, &UnsupportedPLYError{Reason: "list property on vertices"}
			}
			if len(fields) != 3 {
				return nil, nil, errors.Errorf("malformed property line %q", line)
			}
			header.properties = append(header.properties, plyProperty{name: fields[2], typ: fields[1]})
		}
	}
	if header.format == "" {
		return nil, nil, errors.New("missing format line")
	}
	if header.vertexCount < 0 {
		return nil, nil, errors.New("PLY file has no vertex element")
	}
	return header, body, nil
}

// readASCIIPLY delegates to goply, which panics rather than returning errors
// on malformed input; the panic is converted back into an error here.
func readASCIIPLY(raw []byte) (cloud PointCloud, err error) {
	defer func() {
		if r := recover(); r != nil {
			cloud, err = nil, errors.Errorf("malformed PLY file: %v", r)
		}
	}()

	ply := goply.New(bytes.NewReader(raw))
	vertices := ply.Elements("vertex")
	out := NewWithPrealloc(len(vertices))
	for i, vertex := range vertices {
		x, xok := plyFloat(vertex["x"])
		y, yok := plyFloat(vertex["y"])
		z, zok := plyFloat(vertex["z"])
		if !xok || !yok || !zok {
			return nil, errors.Errorf("vertex %d is missing a coordinate", i)
		}
		d := Data{}
		if r, ok := plyFloat(vertex["red"]); ok {
			g, _ := plyFloat(vertex["green"])
			b, _ := plyFloat(vertex["blue"])
			d = Data{HasColor: true, R: uint8(r), G: uint8(g), B: uint8(b)}
		}
		if err := out.Set(r3.Vector{X: x, Y: y, Z: z}, d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// readBinaryPLY decodes a binary little-endian vertex body using the property
// layout declared in the header.
func readBinaryPLY(header *plyHeader, body []byte) (PointCloud, error) {
	offsets := make(map[string]int, len(header.properties))
	types := make(map[string]string, len(header.properties))
	stride := 0
	for _, prop := range header.properties {
		size, ok := plyTypeSize(prop.typ)
		if !ok {
			return nil, &UnsupportedPLYError{Reason: fmt.Sprintf("property type %q", prop.typ)}
		}
		offsets[prop.name] = stride
		types[prop.name] = prop.typ
		stride += size
	}
	for _, name := range []string{"x", "y", "z"} {
		if _, ok := offsets[name]; !ok {
			return nil, errors.Errorf("vertex element is missing the %q property", name)
		}
	}
	if need := stride * header.vertexCount; len(body) < need {
		return nil, errors.Errorf("PLY body is truncated: need %d bytes, have %d", need, len(body))
	}

	hasColor := false
	if _, ok := offsets["red"]; ok {
		_, hasGreen := offsets["green"]
		_, hasBlue := offsets["blue"]
		hasColor = hasGreen && hasBlue
	}

	at := func(row []byte, name string) float64 {
		return plyValue(types[name], row[offsets[name]:])
	}
	cloud := NewWithPrealloc(header.vertexCount)
	for i := 0; i < header.vertexCount; i++ {
		row := body[i*stride : (i+1)*stride]
		d := Data{}
		if hasColor {
			d = Data{HasColor: true, R: uint8(at(row, "red")), G: uint8(at(row, "green")), B: uint8(at(row, "blue"))}
		}
		if err := cloud.Set(r3.Vector{X: at(row, "x"), Y: at(row, "y"), Z: at(row, "z")}, d); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}

func plyTypeSize(typ string) (int, bool) {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1, true
	case "short", "int16", "ushort", "uint16":
		return 2, true
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4, true
	case "double", "float64":
		return 8, true
	}
	return 0, false
}

func plyValue(typ string, b []byte) float64 {
	switch typ {
	case "char", "int8":
		return float64(int8(b[0]))
	case "uchar", "uint8":
		return float64(b[0])
	case "short", "int16":
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case "ushort", "uint16":
		return float64(binary.LittleEndian.Uint16(b))
	case "int", "int32":
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case "uint", "uint32":
		return float64(binary.LittleEndian.Uint32(b))
	case "float", "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case "double", "float64":
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// plyFloat widens whatever numeric type the ascii parser produced for a
// property.
func plyFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// WritePLY writes the cloud as a PLY file with float coordinates and, when the
// cloud has color, uchar RGB per vertex.
func WritePLY(cloud PointCloud, out io.Writer, format PLYFormat) error {
	hasColor := cloud.MetaData().HasColor

	formatLine := "format ascii 1.0"
	if format == PLYBinary {
		formatLine = "format binary_little_endian 1.0"
	}
	header := fmt.Sprintf("ply\n%s\nelement vertex %d\n"+
		"property float x\nproperty float y\nproperty float z\n", formatLine, cloud.Size())
	if hasColor {
		header += "property uchar red\nproperty uchar green\nproperty uchar blue\n"
	}
	header += endHeaderMarker
	if _, err := io.WriteString(out, header); err != nil {
		return err
	}

	var err error
	cloud.Iterate(func(p r3.Vector, d Data) bool {
		switch format {
		case PLYBinary:
			buf := make([]byte, 0, 15)
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(p.X)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(p.Y)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(p.Z)))
			if hasColor {
				buf = append(buf, d.R, d.G, d.B)
			}
			_, err = out.Write(buf)
		default:
			if hasColor {
				_, err = fmt.Fprintf(out, "%f %f %f %d %d %d\n", p.X, p.Y, p.Z, d.R, d.G, d.B)
			} else {
				_, err = fmt.Fprintf(out, "%f %f %f\n", p.X, p.Y, p.Z)
			}
		}
		return err == nil
	})
	return err
}
