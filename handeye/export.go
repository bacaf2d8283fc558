package handeye

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/zivid/handeye-go/posefile"
)

// datasetManifest is the sidecar written next to the exported pose files so a
// dataset directory is self-describing.
type datasetManifest struct {
	SessionID  string      `yaml:"session_id"`
	ExportedAt time.Time   `yaml:"exported_at"`
	PosePairs  []pairEntry `yaml:"pose_pairs"`
}

type pairEntry struct {
	Index      int       `yaml:"index"`
	RobotPose  string    `yaml:"robot_pose"`
	TargetPose string    `yaml:"target_pose,omitempty"`
	CapturedAt time.Time `yaml:"captured_at"`
}

// ExportDataset writes the collected robot poses to dir as pos01.yaml,
// pos02.yaml, ... in the OpenCV matrix format, target observation poses (when
// present) as obs01.yaml, ..., and a manifest.yaml describing the session.
// All pairs are attempted even if some fail; errors are combined.
func (a *Accumulator) ExportDataset(dir string) error {
	if len(a.pairs) == 0 {
		return errors.New("nothing to export, the calibration dataset is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	manifest := datasetManifest{
		SessionID:  a.id.String(),
		ExportedAt: a.clock.Now(),
	}
	var errs error
	for _, pair := range a.pairs {
		entry := pairEntry{Index: pair.Index, CapturedAt: pair.CapturedAt}

		entry.RobotPose = fmt.Sprintf("pos%02d.yaml", pair.Index+1)
		if err := posefile.Save(filepath.Join(dir, entry.RobotPose), pair.RobotPose); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "exporting robot pose %d", pair.Index))
		}

		if target := pair.Observation.TargetPose(); target != nil {
			entry.TargetPose = fmt.Sprintf("obs%02d.yaml", pair.Index+1)
			if err := posefile.Save(filepath.Join(dir, entry.TargetPose), target); err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "exporting target pose %d", pair.Index))
			}
		}
		manifest.PosePairs = append(manifest.PosePairs, entry)
	}

	raw, err := yaml.Marshal(&manifest)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if err := os.WriteFile(filepath.Join(dir, "manifest.yaml"), raw, 0o644); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
