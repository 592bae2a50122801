// Package calibration drives the camera models over sets of calibration views: it keeps one camera per
// physical sensor, selects usable correspondences with the camera mask, estimates view poses and reports
// reprojection statistics.
package calibration

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/plushpluto/MYNT-EYE-S-SDK/cameramodels"
	"github.com/plushpluto/MYNT-EYE-S-SDK/logging"
)

// ErrCameraNotFound is returned when a session has no camera of the requested name.
var ErrCameraNotFound = errors.New("camera not found")

// Session holds the cameras of one calibration run, keyed by camera name.
type Session struct {
	logger logging.Logger

	mu      sync.RWMutex
	cameras map[string]cameramodels.Camera
}

// NewSession creates an empty session.
func NewSession(logger logging.Logger) *Session {
	return &Session{
		logger:  logger,
		cameras: map[string]cameramodels.Camera{},
	}
}

// AddCamera registers cam under its camera name.
func (s *Session) AddCamera(cam cameramodels.Camera) error {
	name := cam.Parameters().CameraName()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cameras[name]; ok {
		return errors.Errorf("camera %q already added to the session", name)
	}
	s.cameras[name] = cam
	s.logger.Debugw("added camera", "name", name, "model", cam.Parameters().ModelType())
	return nil
}

// Camera returns the camera registered under name.
func (s *Session) Camera(name string) (cameramodels.Camera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cam, ok := s.cameras[name]
	if !ok {
		return nil, errors.Wrapf(ErrCameraNotFound, "%q", name)
	}
	return cam, nil
}

// Cameras returns the names of all cameras in the session, sorted.
func (s *Session) Cameras() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := lo.Keys(s.cameras)
	sort.Strings(names)
	return names
}
