package cameramodels

import "github.com/pkg/errors"

var (
	// ErrUnknownModel is returned for a model type no lens model implements.
	ErrUnknownModel = errors.New("unknown camera model")
	// ErrSizeMismatch is returned when paired collections have different lengths.
	ErrSizeMismatch = errors.New("size mismatch")
)

// InvalidIntrinsicsError is used when the intrinsic coefficients of a camera cannot be used.
func InvalidIntrinsicsError(mt ModelType, msg string) error {
	return errors.Errorf("invalid %s intrinsics: %s", mt, msg)
}

func checkCount(mt ModelType, intrinsics []float64) error {
	if want := nIntrinsicsFor(mt); len(intrinsics) != want {
		return errors.Wrapf(ErrSizeMismatch, "%s needs %d intrinsics, got %d", mt, want, len(intrinsics))
	}
	return nil
}
