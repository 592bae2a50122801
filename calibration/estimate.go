package calibration

import (
	"context"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/plushpluto/MYNT-EYE-S-SDK/cameramodels"
	"github.com/plushpluto/MYNT-EYE-S-SDK/utils"
)

// EstimatePoses estimates the target pose of every view seen by the named camera. Views are filtered
// through the camera mask first and solved in parallel.
func (s *Session) EstimatePoses(ctx context.Context, name string, views []View) ([]Pose, error) {
	cam, err := s.Camera(name)
	if err != nil {
		return nil, err
	}
	var validateErr error
	for _, v := range views {
		validateErr = multierr.Combine(validateErr, v.Validate())
	}
	if validateErr != nil {
		return nil, validateErr
	}

	fs := make([]func(context.Context) (Pose, error), len(views))
	for i, v := range views {
		v := FilterByMask(cam, v)
		fs[i] = func(ctx context.Context) (Pose, error) {
			if err := ctx.Err(); err != nil {
				return Pose{}, err
			}
			rvec, tvec, err := cameramodels.EstimateExtrinsics(cam, v.ObjectPoints, v.ImagePoints)
			if err != nil {
				return Pose{}, errors.Wrapf(err, "view %d (%q) with %d usable points", i, v.Name, len(v.ObjectPoints))
			}
			s.logger.Debugw("estimated view pose", "camera", name, "view", v.Name, "rotation", rvec, "translation", tvec)
			return Pose{View: v.Name, Rotation: rvec, Translation: tvec}, nil
		}
	}

	elapsed, poses, err := utils.GetInParallel(ctx, fs)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("estimated poses", "camera", name, "views", len(views), "elapsed", elapsed)
	return poses, nil
}

// Report summarizes the reprojection error of a set of views.
type Report struct {
	Camera    string    `json:"camera" yaml:"camera"`
	NumPoints int       `json:"num_points" yaml:"num_points"`
	Mean      float64   `json:"mean" yaml:"mean"`
	Views     []string  `json:"views" yaml:"views"`
	PerView   []float64 `json:"per_view" yaml:"per_view"`
	Median    float64   `json:"median" yaml:"median"`
	P95       float64   `json:"p95" yaml:"p95"`
	Max       float64   `json:"max" yaml:"max"`
	RMS       float64   `json:"rms" yaml:"rms"`
}

// String prints the summary statistics followed by a table of the mean error of each view.
func (r *Report) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s: %d points, mean %.4f px, median %.4f px, p95 %.4f px, max %.4f px, rms %.4f px",
		r.Camera, r.NumPoints, r.Mean, r.Median, r.P95, r.Max, r.RMS))
	t.AppendHeader(table.Row{"#", "View", "Mean error (px)"})
	for i, e := range r.PerView {
		name := ""
		if i < len(r.Views) {
			name = r.Views[i]
		}
		t.AppendRow(table.Row{i, name, fmt.Sprintf("%.4f", e)})
	}
	return t.Render()
}

// Evaluate reports the reprojection error of views under poses for the named camera. Views are filtered
// through the camera mask like in EstimatePoses.
func (s *Session) Evaluate(name string, views []View, poses []Pose) (*Report, error) {
	cam, err := s.Camera(name)
	if err != nil {
		return nil, err
	}
	if len(views) != len(poses) {
		return nil, errors.Wrapf(cameramodels.ErrSizeMismatch, "%d views and %d poses", len(views), len(poses))
	}
	for _, v := range views {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	filtered := lo.Map(views, func(v View, _ int) View { return FilterByMask(cam, v) })

	objectPoints := lo.Map(filtered, func(v View, _ int) []r3.Vector { return v.ObjectPoints })
	imagePoints := lo.Map(filtered, func(v View, _ int) []r2.Point { return v.ImagePoints })
	rvecs := lo.Map(poses, func(p Pose, _ int) r3.Vector { return p.Rotation })
	tvecs := lo.Map(poses, func(p Pose, _ int) r3.Vector { return p.Translation })

	mean, perView, err := cameramodels.ReprojectionError(cam, objectPoints, imagePoints, rvecs, tvecs)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Camera:  name,
		Mean:    mean,
		Views:   lo.Map(views, func(v View, _ int) string { return v.Name }),
		PerView: perView,
	}

	var pointErrors stats.Float64Data
	for i := range filtered {
		projected := cameramodels.ProjectPoints(cam, objectPoints[i], rvecs[i], tvecs[i])
		for j, p := range projected {
			pointErrors = append(pointErrors, p.Sub(imagePoints[i][j]).Norm())
		}
	}
	report.NumPoints = pointErrors.Len()
	if report.NumPoints == 0 {
		s.logger.Warnw("no usable points to evaluate", "camera", name)
		return report, nil
	}

	if report.Median, err = stats.Median(pointErrors); err != nil {
		return nil, err
	}
	if report.P95, err = stats.Percentile(pointErrors, 95); err != nil {
		return nil, err
	}
	if report.Max, err = stats.Max(pointErrors); err != nil {
		return nil, err
	}
	if report.RMS, err = stats.RootMeanSquare(pointErrors); err != nil {
		return nil, err
	}
	s.logger.Infow("reprojection error", "camera", name, "mean", report.Mean, "median", report.Median,
		"p95", report.P95, "max", report.Max)
	return report, nil
}
