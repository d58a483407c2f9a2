// SPDX-License-Identifier: Apache-2.0

package models

import (
	"context"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/histoprep/cellcount/internal/segment"
)

const (
	cellposeName = "cellpose"
	// cellposeInput is the file the grayscale patch is written to; cellpose
	// names its outputs after it.
	cellposeInput = "patch.png"
	maxOutputTail = 512
)

var cellposeMaskFiles = []string{"patch_cp_masks.tif", "patch_cp_masks.png"}

func init() {
	Register(cellposeName, NewCellpose)
}

// Cellpose runs the Cellpose command line tool once per image and reads the
// label mask it saves.
type Cellpose struct {
	command string
	args    []string
	logger  *zap.Logger
}

// NewCellpose creates the backend. The default command is
// "python -m cellpose".
func NewCellpose(opts Options, logger *zap.Logger) (segment.Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cellpose{command: opts.Command, args: slices.Clone(opts.Args), logger: logger}
	if c.command == "" {
		c.command = "python"
		if len(c.args) == 0 {
			c.args = []string{"-m", "cellpose"}
		}
	}
	return c, nil
}

func (c *Cellpose) Name() string { return cellposeName }

func (c *Cellpose) Eval(ctx context.Context, img *image.Gray, params segment.Params) (segment.LabelMask, error) {
	dir, err := os.MkdirTemp("", "cellpose-*")
	if err != nil {
		return segment.LabelMask{}, errors.Wrap(err, "create cellpose workdir")
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, cellposeInput)
	if err := writeGray(input, img); err != nil {
		return segment.LabelMask{}, err
	}

	args := c.Args(input, dir, params)
	cmd := exec.CommandContext(ctx, c.command, args...)
	c.logger.Debug("running cellpose", zap.String("command", c.command), zap.Strings("args", args))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return segment.LabelMask{}, errors.Wrapf(err, "cellpose: %s", tail(out))
	}

	for _, name := range cellposeMaskFiles {
		maskImg, err := segment.LoadImage(filepath.Join(dir, name))
		if os.IsNotExist(errors.Cause(err)) {
			continue
		}
		if err != nil {
			return segment.LabelMask{}, errors.Wrap(err, "read cellpose mask")
		}
		return segment.MaskFromImage(maskImg), nil
	}
	return segment.LabelMask{}, errors.Errorf("cellpose wrote no mask to %s", dir)
}

// Args builds the cellpose command line for one image.
func (c *Cellpose) Args(input, saveDir string, params segment.Params) []string {
	args := slices.Clone(c.args)
	args = append(args,
		"--image_path", input,
		"--pretrained_model", params.ModelType,
		"--diameter", strconv.FormatFloat(params.Diameter, 'f', -1, 64),
		"--chan", strconv.Itoa(params.Channels[0]),
		"--chan2", strconv.Itoa(params.Channels[1]),
		"--savedir", saveDir,
		"--save_tif",
		"--no_npy",
	)
	if params.GPU {
		args = append(args, "--use_gpu")
	}
	return args
}

func writeGray(path string, img *image.Gray) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write cellpose input")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "encode cellpose input")
	}
	return f.Close()
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxOutputTail {
		s = "..." + s[len(s)-maxOutputTail:]
	}
	return s
}
