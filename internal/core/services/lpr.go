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

package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

// Remote command construction for the BSD print tools on the cluster.
// The commands are sent verbatim to the remote shell.

// simplexSuffix encodes the cluster's queue naming convention: single-sided
// queues carry the suffix, double-sided queues don't. Deployment contract,
// not negotiable at runtime.
const simplexSuffix = "-sx"

// queueName adjusts the destination for the requested duplex mode.
func queueName(destination string, duplex domain.DuplexMode) string {
	if duplex == domain.Simplex {
		if strings.HasSuffix(destination, simplexSuffix) {
			return destination
		}
		return destination + simplexSuffix
	}
	return strings.TrimSuffix(destination, simplexSuffix)
}

// buildSubmitCommand assembles the lpr invocation: destination queue,
// copies flag when copies>1, duplex/orientation options, document path.
func buildSubmitCommand(queue, remotePath string, s domain.PrintSettings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "lpr -P %s", queue)
	if s.Copies > 1 {
		fmt.Fprintf(&b, " -# %d", s.Copies)
	}
	switch s.Duplex {
	case domain.Simplex:
		b.WriteString(" -o sides=one-sided")
	case domain.DuplexShortEdge:
		b.WriteString(" -o sides=two-sided-short-edge")
	default:
		b.WriteString(" -o sides=two-sided-long-edge")
	}
	if s.Orientation == domain.Landscape {
		b.WriteString(" -o landscape")
	} else {
		b.WriteString(" -o portrait")
	}
	b.WriteString(" " + remotePath)
	return b.String()
}

func buildQueueCommand(queue string) string {
	return "lpq -P " + queue
}

func buildCancelCommand(queue, jobName string) string {
	return fmt.Sprintf("lprm -P %s %s", queue, jobName)
}

// parseQueueID extracts the remote queue identifier from an lpr acceptance
// response of the form "request id is psts-123 (1 file(s))". Returns ""
// when no identifier can be found.
func parseQueueID(output string) string {
	const marker = "request id is "
	idx := strings.Index(output, marker)
	if idx < 0 {
		return ""
	}
	rest := output[idx+len(marker):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '('
	})
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// parseQueueListing reduces lpq output to its entry lines. Headers and
// blank lines are discarded; a line qualifies only if its first token is a
// rank: a number with an ordinal suffix (1st, 2nd, ...) or the literal
// "active" rank lpq assigns to the job currently printing.
func parseQueueListing(output string) []string {
	var entries []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if isRankToken(fields[0]) {
			entries = append(entries, line)
		}
	}
	return entries
}

func isRankToken(tok string) bool {
	if tok == "active" {
		return true
	}
	lower := strings.ToLower(tok)
	var suffix string
	switch {
	case strings.HasSuffix(lower, "st"):
		suffix = "st"
	case strings.HasSuffix(lower, "nd"):
		suffix = "nd"
	case strings.HasSuffix(lower, "rd"):
		suffix = "rd"
	case strings.HasSuffix(lower, "th"):
		suffix = "th"
	default:
		return false
	}
	digits := lower[:len(lower)-len(suffix)]
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// listingContains reports whether the identifier is visible in any parsed
// entry line. lpr acknowledges with the full identifier ("psts-42") but
// lpq's Job column shows only the bare number, so an entry matches on
// either the full text or a whole field equal to the numeric tail.
func listingContains(entries []string, queueID string) bool {
	num := queueIDNumber(queueID)
	for _, e := range entries {
		if strings.Contains(e, queueID) {
			return true
		}
		if num == "" {
			continue
		}
		for _, field := range strings.Fields(e) {
			if field == num {
				return true
			}
		}
	}
	return false
}

// queueIDNumber extracts the trailing digit run of an identifier like
// "psts-42". Empty when the identifier has no numeric tail.
func queueIDNumber(queueID string) string {
	i := len(queueID)
	for i > 0 && queueID[i-1] >= '0' && queueID[i-1] <= '9' {
		i--
	}
	if i == len(queueID) {
		return ""
	}
	return queueID[i:]
}
