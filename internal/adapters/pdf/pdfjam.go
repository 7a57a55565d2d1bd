// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pdf

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

// Transformer produces multi-up and booklet renditions by shelling out to
// pdfjam, the tool the cluster documentation recommends for imposition.
type Transformer struct {
	run    func(args ...string) ([]byte, error)
	logger *zap.SugaredLogger
}

func NewTransformer(logger *zap.SugaredLogger) *Transformer {
	return &Transformer{
		run: func(args ...string) ([]byte, error) {
			return exec.Command("pdfjam", args...).CombinedOutput()
		},
		logger: logger,
	}
}

// Transform writes the transformed document to outputPath. Exactly one of
// booklet or pages-per-sheet>1 must be requested.
func (t *Transformer) Transform(inputPath, outputPath string, settings domain.PrintSettings) error {
	var args []string
	switch {
	case settings.Booklet:
		args = []string{"--booklet", "true", "--landscape", "--nup", "2x1"}
	case settings.PagesPerSheet > 1:
		grid, err := nupGrid(settings.PagesPerSheet)
		if err != nil {
			return &domain.TransformError{Reason: err.Error()}
		}
		args = []string{"--nup", grid}
		if settings.PagesPerSheet == 2 {
			args = append(args, "--landscape")
		}
	default:
		return &domain.TransformError{Reason: "no layout transform requested"}
	}

	if settings.PaperSize == domain.PaperA3 {
		args = append(args, "--paper", "a3paper")
	} else {
		args = append(args, "--paper", "a4paper")
	}
	args = append(args, "--outfile", outputPath, inputPath)

	t.logger.Debugw("running layout transform", "args", args)
	out, err := t.run(args...)
	if err != nil {
		return &domain.TransformError{
			Reason: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}
	return nil
}

// nupGrid maps pages-per-sheet to a pdfjam grid.
func nupGrid(n int) (string, error) {
	switch n {
	case 2:
		return "2x1", nil
	case 4:
		return "2x2", nil
	case 6:
		return "3x2", nil
	case 8:
		return "4x2", nil
	case 9:
		return "3x3", nil
	case 16:
		return "4x4", nil
	default:
		return "", fmt.Errorf("unsupported pages-per-sheet: %d", n)
	}
}
