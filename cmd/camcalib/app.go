package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/knadh/koanf"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"
	"gopkg.in/yaml.v2"

	"github.com/plushpluto/MYNT-EYE-S-SDK/calibration"
	"github.com/plushpluto/MYNT-EYE-S-SDK/cameramodels"
	"github.com/plushpluto/MYNT-EYE-S-SDK/logging"
)

const (
	configFlag = "config"
	debugFlag  = "debug"
	cameraFlag = "camera"
	viewsFlag  = "views"
	pointFlag  = "point"
	pixelFlag  = "pixel"
	rvecFlag   = "rvec"
	tvecFlag   = "tvec"
	tableFlag  = "table"
)

// settings are the defaults that a --config file can provide.
type settings struct {
	Camera   string `koanf:"camera"`
	Views    string `koanf:"views"`
	LogLevel string `koanf:"log_level"`
}

// runner carries the state shared by all commands of one invocation.
type runner struct {
	logger   logging.Logger
	settings settings
	out      io.Writer
}

func loadSettings(path string) (settings, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(settings{LogLevel: "info"}, "koanf"), nil); err != nil {
		return settings{}, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return settings{}, errors.Wrapf(err, "error loading config %s", path)
		}
	}
	var s settings
	if err := k.Unmarshal("", &s); err != nil {
		return settings{}, err
	}
	return s, nil
}

func newRunner(c *cli.Context) (*runner, error) {
	s, err := loadSettings(c.String(configFlag))
	if err != nil {
		return nil, err
	}
	level, err := logging.LevelFromString(s.LogLevel)
	if err != nil {
		return nil, err
	}
	if c.Bool(debugFlag) {
		level = logging.DEBUG
	}
	logger := logging.NewBlankLogger("camcalib")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(level)
	return &runner{logger: logger, settings: s, out: c.App.Writer}, nil
}

func (r *runner) cameraPath(c *cli.Context) (string, error) {
	if path := c.String(cameraFlag); path != "" {
		return path, nil
	}
	if r.settings.Camera != "" {
		return r.settings.Camera, nil
	}
	return "", errors.Errorf("no camera file given, use --%s or set camera in the config file", cameraFlag)
}

func (r *runner) loadCamera(c *cli.Context) (cameramodels.Camera, error) {
	path, err := r.cameraPath(c)
	if err != nil {
		return nil, err
	}
	cfg, err := cameramodels.ReadConfigFile(path)
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("loaded camera", "path", path, "model", cfg.ModelType)
	return cameramodels.NewCamera(*cfg)
}

func (r *runner) printYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = r.out.Write(data)
	return err
}

// parseFloats parses comma separated numbers. A negative n accepts any count.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if n >= 0 && len(parts) != n {
		return nil, errors.Errorf("expected %d comma separated values, got %q", n, s)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad value in %q", s)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseVector(s string) (r3.Vector, error) {
	if s == "" {
		return r3.Vector{}, nil
	}
	v, err := parseFloats(s, 3)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseGroups reads the values of a repeated flag as groups of n numbers. Slice flags split their values
// on commas, so the components are regrouped here.
func parseGroups(values []string, n int) ([][]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	flat, err := parseFloats(strings.Join(values, ","), -1)
	if err != nil {
		return nil, err
	}
	if len(flat)%n != 0 {
		return nil, errors.Errorf("expected groups of %d comma separated values, got %q", n, strings.Join(values, " "))
	}
	return lo.Chunk(flat, n), nil
}

// readViews reads a list of calibration views from a JSON or YAML file.
func readViews(path string) ([]calibration.View, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening views file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading views file")
	}
	var views []calibration.View
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &views)
	default:
		err = json.Unmarshal(data, &views)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing views file %s", path)
	}
	return views, nil
}

func showAction(c *cli.Context) error {
	r, err := newRunner(c)
	if err != nil {
		return err
	}
	cam, err := r.loadCamera(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, cam.Parameters().String())
	if d, ok := cam.(cameramodels.Distorted); ok {
		fmt.Fprintf(r.out, "distortion %s\n", d.Distortion().ModelType())
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Intrinsic", "Value"})
	names := cameramodels.IntrinsicNames(cam.Parameters().ModelType())
	for i, v := range cam.Intrinsics() {
		t.AppendRow(table.Row{names[i], v})
	}
	t.Render()
	return nil
}

type projection struct {
	Point r3.Vector `yaml:"point"`
	Pixel r2.Point  `yaml:"pixel"`
}

func projectAction(c *cli.Context) error {
	r, err := newRunner(c)
	if err != nil {
		return err
	}
	cam, err := r.loadCamera(c)
	if err != nil {
		return err
	}
	rvec, err := parseVector(c.String(rvecFlag))
	if err != nil {
		return err
	}
	tvec, err := parseVector(c.String(tvecFlag))
	if err != nil {
		return err
	}
	groups, err := parseGroups(c.StringSlice(pointFlag), 3)
	if err != nil {
		return err
	}
	points := lo.Map(groups, func(v []float64, _ int) r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} })
	if len(points) == 0 {
		return errors.Errorf("no points given, use --%s x,y,z", pointFlag)
	}
	pixels := cameramodels.ProjectPoints(cam, points, rvec, tvec)
	return r.printYAML(lo.Map(pixels, func(p r2.Point, i int) projection {
		return projection{Point: points[i], Pixel: p}
	}))
}

type lifted struct {
	Pixel  r2.Point  `yaml:"pixel"`
	Ray    r3.Vector `yaml:"ray"`
	Sphere r3.Vector `yaml:"sphere"`
}

func liftAction(c *cli.Context) error {
	r, err := newRunner(c)
	if err != nil {
		return err
	}
	cam, err := r.loadCamera(c)
	if err != nil {
		return err
	}
	groups, err := parseGroups(c.StringSlice(pixelFlag), 2)
	if err != nil {
		return err
	}
	out := lo.Map(groups, func(v []float64, _ int) lifted {
		p := r2.Point{X: v[0], Y: v[1]}
		return lifted{Pixel: p, Ray: cam.LiftProjective(p), Sphere: cameramodels.LiftSphere(cam, p)}
	})
	if len(out) == 0 {
		return errors.Errorf("no pixels given, use --%s u,v", pixelFlag)
	}
	return r.printYAML(out)
}

type extrinsicsResult struct {
	Poses  []calibration.Pose  `yaml:"poses"`
	Report *calibration.Report `yaml:"report"`
}

func extrinsicsAction(c *cli.Context) error {
	r, err := newRunner(c)
	if err != nil {
		return err
	}
	cam, err := r.loadCamera(c)
	if err != nil {
		return err
	}
	viewsPath := c.String(viewsFlag)
	if viewsPath == "" {
		viewsPath = r.settings.Views
	}
	if viewsPath == "" {
		return errors.Errorf("no views file given, use --%s or set views in the config file", viewsFlag)
	}
	views, err := readViews(viewsPath)
	if err != nil {
		return err
	}

	session := calibration.NewSession(r.logger.Sublogger("session"))
	if err := session.AddCamera(cam); err != nil {
		return err
	}
	name := cam.Parameters().CameraName()
	poses, err := session.EstimatePoses(c.Context, name, views)
	if err != nil {
		return err
	}
	report, err := session.Evaluate(name, views, poses)
	if err != nil {
		return err
	}
	if c.Bool(tableFlag) {
		fmt.Fprintln(r.out, report.String())
		return nil
	}
	return r.printYAML(extrinsicsResult{Poses: poses, Report: report})
}

func cameraFlagDef() cli.Flag {
	return &cli.StringFlag{
		Name:    cameraFlag,
		Aliases: []string{"c"},
		Usage:   "camera model file (.json, .yaml or .yml)",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "camcalib",
		Usage: "work with calibrated camera lens models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configFlag,
				Usage: "yaml file with default camera, views and log_level",
			},
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "print the parameters and intrinsics of a camera",
				Flags:  []cli.Flag{cameraFlagDef()},
				Action: showAction,
			},
			{
				Name:  "project",
				Usage: "project points in the target frame onto the image",
				Flags: []cli.Flag{
					cameraFlagDef(),
					&cli.StringSliceFlag{Name: pointFlag, Aliases: []string{"p"}, Usage: "point as x,y,z"},
					&cli.StringFlag{Name: rvecFlag, Usage: "rotation vector as x,y,z"},
					&cli.StringFlag{Name: tvecFlag, Usage: "translation as x,y,z"},
				},
				Action: projectAction,
			},
			{
				Name:  "lift",
				Usage: "lift pixels to rays",
				Flags: []cli.Flag{
					cameraFlagDef(),
					&cli.StringSliceFlag{Name: pixelFlag, Usage: "pixel as u,v"},
				},
				Action: liftAction,
			},
			{
				Name:  "extrinsics",
				Usage: "estimate the target pose of every view and report the reprojection error",
				Flags: []cli.Flag{
					cameraFlagDef(),
					&cli.StringFlag{Name: viewsFlag, Usage: "views file (.json, .yaml or .yml)"},
					&cli.BoolFlag{Name: tableFlag, Usage: "print the error report as a table instead of yaml"},
				},
				Action: extrinsicsAction,
			},
		},
	}
}
