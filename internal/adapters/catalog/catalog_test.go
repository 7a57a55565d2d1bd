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
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

func TestListPrintersBuiltin(t *testing.T) {
	c := NewCatalog(zaptest.NewLogger(t).Sugar(), "")

	printers, err := c.ListPrinters()
	if err != nil {
		t.Fatalf("ListPrinters() error = %v", err)
	}
	if len(printers) == 0 {
		t.Fatal("built-in catalog is empty")
	}
	for _, p := range printers {
		if p.QueueName == "" {
			t.Errorf("printer %q has no queue name", p.ID)
		}
	}
}

func TestListPrintersMissingFileFallsBack(t *testing.T) {
	c := NewCatalog(zaptest.NewLogger(t).Sugar(), filepath.Join(t.TempDir(), "absent.yaml"))

	printers, err := c.ListPrinters()
	if err != nil {
		t.Fatalf("ListPrinters() error = %v", err)
	}
	if len(printers) == 0 {
		t.Error("missing catalog file should fall back to built-ins")
	}
}

func TestListPrintersFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.yaml")
	content := `
- id: lab1
  name: Lab 1 Printer
  queue: lab1q
  building: COM3
  room: 01-20
  floor: "1"
  supports_duplex: true
  supports_color: true
  paper_sizes: [A4, A3]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog(zaptest.NewLogger(t).Sugar(), path)
	printers, err := c.ListPrinters()
	if err != nil {
		t.Fatalf("ListPrinters() error = %v", err)
	}
	if len(printers) != 1 {
		t.Fatalf("got %d printers, want 1", len(printers))
	}
	p := printers[0]
	if p.ID != "lab1" || p.QueueName != "lab1q" || !p.SupportsColor {
		t.Errorf("printer = %+v", p)
	}
	if len(p.SupportedPaperSizes) != 2 || p.SupportedPaperSizes[1] != domain.PaperA3 {
		t.Errorf("paper sizes = %v", p.SupportedPaperSizes)
	}
}

func TestListPrintersRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.yaml")
	if err := os.WriteFile(path, []byte("- id: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog(zaptest.NewLogger(t).Sugar(), path)
	if _, err := c.ListPrinters(); err == nil {
		t.Error("ListPrinters() accepted malformed YAML")
	}
}
