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

package main

import (
	"reflect"
	"testing"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		spec    string
		want    domain.PageRange
		wantErr bool
	}{
		{"all", domain.PageRange{Kind: domain.PageRangeAll}, false},
		{"", domain.PageRange{Kind: domain.PageRangeAll}, false},
		{"3-9", domain.PageRange{Kind: domain.PageRangeSpan, Start: 3, End: 9}, false},
		{"5-5", domain.PageRange{Kind: domain.PageRangeSpan, Start: 5, End: 5}, false},
		{"1,3,5", domain.PageRange{Kind: domain.PageRangeSelection, Pages: []int{1, 3, 5}}, false},
		{"7", domain.PageRange{Kind: domain.PageRangeSelection, Pages: []int{7}}, false},
		{"9-3", domain.PageRange{}, true},
		{"0-4", domain.PageRange{}, true},
		{"a-b", domain.PageRange{}, true},
		{"1,x", domain.PageRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parsePageRange(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePageRange(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parsePageRange(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseSettings(t *testing.T) {
	s, err := parseSettings(2, "simplex", "landscape", "a3", 1, false, "all")
	if err != nil {
		t.Fatalf("parseSettings() error = %v", err)
	}
	if s.Copies != 2 || s.Duplex != domain.Simplex || s.Orientation != domain.Landscape || s.PaperSize != domain.PaperA3 {
		t.Errorf("settings = %+v", s)
	}

	if _, err := parseSettings(0, "long", "portrait", "A4", 1, false, "all"); err == nil {
		t.Error("accepted zero copies")
	}
	if _, err := parseSettings(1, "triplex", "portrait", "A4", 1, false, "all"); err == nil {
		t.Error("accepted unknown duplex mode")
	}
	if _, err := parseSettings(1, "long", "diagonal", "A4", 1, false, "all"); err == nil {
		t.Error("accepted unknown orientation")
	}
	if _, err := parseSettings(1, "long", "portrait", "letter", 1, false, "all"); err == nil {
		t.Error("accepted unknown paper size")
	}
	if _, err := parseSettings(1, "long", "portrait", "A4", 2, true, "all"); err == nil {
		t.Error("accepted booklet combined with pages-per-sheet")
	}
}
