package store

import (
	"errors"

	"github.com/banshee-data/delay.report/internal/monitoring"
)

// LatestArtifact resolves the newest artifact for a stage. The manifest is
// consulted first; a directory mtime scan is the fallback when the manifest
// is absent, has no entry for the stage, or points at a file that has since
// been removed.
func LatestArtifact(s *Store, m *Manifest, stage, dir, keyword string, exts ...string) (string, error) {
	if m != nil {
		run, err := m.LatestRun(stage)
		switch {
		case err == nil:
			if s.fs.Exists(run.OutputPath) {
				return run.OutputPath, nil
			}
			monitoring.Warnf("manifest output %s for stage %s is gone, falling back to directory scan", run.OutputPath, stage)
		case !errors.Is(err, ErrNoArtifacts):
			return "", err
		}
	}
	return s.LatestFile(dir, keyword, exts...)
}
