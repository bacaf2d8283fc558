// Package posefile reads and writes rigid transforms in the YAML layout used
// by the calibration tooling (OpenCV FileStorage compatible), as well as the
// 16-value row-major text form used when entering robot poses by hand.
package posefile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/zivid/handeye-go/spatialmath"
)

// PoseKey is the mapping key the camera tooling writes 4x4 transforms under.
const PoseKey = "PoseState"

const opencvMatrixTag = "!!opencv-matrix"

// Load reads a 4x4 transform from a YAML file. Both the OpenCV matrix layout
// (rows/cols/data) and a plain nested 4x4 list are accepted; the matrix is
// validated the same way as any other pose input.
func Load(path string) (*spatialmath.Pose, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// Decode parses YAML bytes holding a 4x4 transform. See Load.
func Decode(raw []byte) (*spatialmath.Pose, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(sanitize(raw), &root); err != nil {
		return nil, errors.Wrap(err, "cannot parse transform file")
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("transform file is empty")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, errors.New("transform file does not contain a mapping")
	}

	// Prefer the canonical key, then fall back to the first entry that parses
	// as a matrix.
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == PoseKey {
			return matrixFromNode(doc.Content[i+1])
		}
	}
	var lastErr error
	for i := 1; i < len(doc.Content); i += 2 {
		pose, err := matrixFromNode(doc.Content[i])
		if err == nil {
			return pose, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.Errorf("no %q entry found", PoseKey)
}

// Save writes the pose under PoseKey in OpenCV FileStorage layout, so the file
// can be consumed directly by the camera tooling.
func Save(path string, pose *spatialmath.Pose) error {
	raw, err := Encode(pose)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Encode renders the pose as OpenCV FileStorage-compatible YAML bytes.
func Encode(pose *spatialmath.Pose) ([]byte, error) {
	if pose == nil {
		return nil, errors.New("cannot encode a nil pose")
	}
	doc := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalarNode(PoseKey),
			matrixNode(pose.Matrix()),
		},
	}
	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append([]byte("%YAML:1.0\n---\n"), body...), nil
}

// ParseRowMajor parses a 4x4 transform from 16 space-separated values in
// row-major order, the format used for interactive robot pose entry.
func ParseRowMajor(s string) (*spatialmath.Pose, error) {
	fields := strings.Fields(s)
	if len(fields) != 16 {
		return nil, errors.Errorf("expected 16 values for a 4x4 matrix, got %d", len(fields))
	}
	data := make([]float64, 16)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d is not a number", i)
		}
		data[i] = v
	}
	return spatialmath.NewPoseFromMatrix(mat.NewDense(4, 4, data))
}

// FormatRowMajor renders a pose as 16 space-separated row-major values, the
// inverse of ParseRowMajor.
func FormatRowMajor(pose *spatialmath.Pose) string {
	m := pose.Matrix()
	parts := make([]string, 0, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			parts = append(parts, strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
	}
	return strings.Join(parts, " ")
}

// sanitize strips OpenCV's `%YAML:1.0` directive, which predates YAML 1.1 and
// is rejected by conforming parsers.
func sanitize(raw []byte) []byte {
	s := string(raw)
	if strings.HasPrefix(s, "%YAML:") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = ""
		}
		if !strings.HasPrefix(s, "---") {
			s = "---\n" + s
		}
	}
	return []byte(s)
}

func matrixFromNode(node *yaml.Node) (*spatialmath.Pose, error) {
	switch node.Kind {
	case yaml.MappingNode:
		// walked by hand since the node carries the foreign !!opencv-matrix tag
		rows, cols := 0, 0
		var data []float64
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			var err error
			switch key.Value {
			case "rows":
				rows, err = strconv.Atoi(value.Value)
			case "cols":
				cols, err = strconv.Atoi(value.Value)
			case "data":
				data, err = floatSequence(value)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "malformed %q entry", key.Value)
			}
		}
		if rows != 4 || cols != 4 || len(data) != 16 {
			return nil, errors.Errorf("expected a 4x4 matrix, got %dx%d with %d values", rows, cols, len(data))
		}
		return spatialmath.NewPoseFromMatrix(mat.NewDense(4, 4, data))
	case yaml.SequenceNode:
		var rows [][]float64
		if err := node.Decode(&rows); err != nil {
			return nil, errors.Wrap(err, "malformed matrix entry")
		}
		if len(rows) != 4 {
			return nil, errors.Errorf("expected 4 rows, got %d", len(rows))
		}
		data := make([]float64, 0, 16)
		for i, row := range rows {
			if len(row) != 4 {
				return nil, errors.Errorf("row %d has %d values, expected 4", i, len(row))
			}
			data = append(data, row...)
		}
		return spatialmath.NewPoseFromMatrix(mat.NewDense(4, 4, data))
	}
	return nil, errors.New("matrix entry is neither a mapping nor a sequence")
}

func floatSequence(node *yaml.Node) ([]float64, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, errors.New("expected a sequence")
	}
	out := make([]float64, 0, len(node.Content))
	for _, c := range node.Content {
		v, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func matrixNode(m *mat.Dense) *yaml.Node {
	data := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			data.Content = append(data.Content, scalarNode(fmt.Sprintf("%.12g", m.At(i, j))))
		}
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  opencvMatrixTag,
		Content: []*yaml.Node{
			scalarNode("rows"), scalarNode("4"),
			scalarNode("cols"), scalarNode("4"),
			scalarNode("dt"), scalarNode("d"),
			scalarNode("data"), data,
		},
	}
}
