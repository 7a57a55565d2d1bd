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

package catalog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

// Catalog lists the known printer queues. The built-in list mirrors the
// cluster deployment; a YAML file at the given path overrides it.
type Catalog struct {
	filePath string
	logger   *zap.SugaredLogger
}

func NewCatalog(logger *zap.SugaredLogger, filePath string) *Catalog {
	return &Catalog{filePath: filePath, logger: logger}
}

type printerYAML struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Queue          string   `yaml:"queue"`
	Building       string   `yaml:"building"`
	Room           string   `yaml:"room"`
	Floor          string   `yaml:"floor"`
	SupportsDuplex bool     `yaml:"supports_duplex"`
	SupportsColor  bool     `yaml:"supports_color"`
	PaperSizes     []string `yaml:"paper_sizes"`
}

func (c *Catalog) ListPrinters() ([]domain.Printer, error) {
	if c.filePath == "" {
		return builtinPrinters(), nil
	}
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return builtinPrinters(), nil
		}
		return nil, fmt.Errorf("read printer catalog: %w", err)
	}

	var entries []printerYAML
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse printer catalog: %w", err)
	}

	printers := make([]domain.Printer, 0, len(entries))
	for _, e := range entries {
		sizes := make([]domain.PaperSize, 0, len(e.PaperSizes))
		for _, s := range e.PaperSizes {
			sizes = append(sizes, domain.PaperSize(s))
		}
		printers = append(printers, domain.Printer{
			ID:        e.ID,
			Name:      e.Name,
			QueueName: e.Queue,
			Location: domain.PrinterLocation{
				Building: e.Building,
				Room:     e.Room,
				Floor:    e.Floor,
			},
			SupportsDuplex:      e.SupportsDuplex,
			SupportsColor:       e.SupportsColor,
			SupportedPaperSizes: sizes,
		})
	}
	c.logger.Debugw("printer catalog loaded", "path", c.filePath, "printers", len(printers))
	return printers, nil
}

func builtinPrinters() []domain.Printer {
	return []domain.Printer{
		{
			ID:                  "psts",
			Name:                "COM1-L1-PS",
			QueueName:           "psts",
			Location:            domain.PrinterLocation{Building: "COM1", Room: "01-01", Floor: "1"},
			SupportsDuplex:      true,
			SupportedPaperSizes: []domain.PaperSize{domain.PaperA4},
		},
		{
			ID:                  "psc008",
			Name:                "COM1-L2-PS-Color",
			QueueName:           "psc008",
			Location:            domain.PrinterLocation{Building: "COM1", Room: "02-05", Floor: "2"},
			SupportsDuplex:      true,
			SupportsColor:       true,
			SupportedPaperSizes: []domain.PaperSize{domain.PaperA4, domain.PaperA3},
		},
		{
			ID:                  "pstsc",
			Name:                "COM2-L3-PS",
			QueueName:           "pstsc",
			Location:            domain.PrinterLocation{Building: "COM2", Room: "03-12", Floor: "3"},
			SupportsDuplex:      true,
			SupportedPaperSizes: []domain.PaperSize{domain.PaperA4},
		},
	}
}
