// Copyright 2025 Crestdesk Systems
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


package kb

import (
	"regexp"
	"strings"
)

// Chunking defaults. Sizes and overlaps count runes, not bytes, so
// multi-byte text never gets split mid-character.
const (
	DefaultChunkSize        = 1200
	DefaultParagraphOverlap = 200
	DefaultWindowOverlap    = 150
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// SplitParagraphs splits text into chunks of at most maxChars runes along
// paragraph boundaries. Paragraphs are packed greedily; a paragraph larger
// than maxChars is hard-sliced. Every chunk after the first is prefixed
// with the tail of its predecessor so context survives the cut.
func SplitParagraphs(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultParagraphOverlap
	}

	text = strings.ReplaceAll(text, "\r", "")
	paragraphs := paragraphBreak.Split(text, -1)

	var chunks []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufLen = 0
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		runes := []rune(para)

		if len(runes) > maxChars {
			flush()
			// Hard-slice the oversized paragraph, stepping so consecutive
			// slices share an overlap region.
			step := maxChars - overlap
			if step < 1 {
				step = 1
			}
			for i := 0; i < len(runes); i += step {
				end := i + maxChars
				if end > len(runes) {
					end = len(runes)
				}
				chunks = append(chunks, string(runes[i:end]))
				if end == len(runes) {
					break
				}
			}
			continue
		}

		if bufLen > 0 && bufLen+2+len(runes) > maxChars {
			flush()
		}
		if bufLen > 0 {
			buf.WriteString("\n\n")
			bufLen += 2
		}
		buf.WriteString(para)
		bufLen += len(runes)
	}
	flush()

	if overlap == 0 || len(chunks) < 2 {
		return chunks
	}

	// Overlap pass: prepend each chunk with the tail of the previous
	// output chunk.
	withOverlap := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i == 0 {
			withOverlap = append(withOverlap, chunk)
			continue
		}
		withOverlap = append(withOverlap, tailRunes(withOverlap[i-1], overlap)+"\n"+chunk)
	}
	return withOverlap
}

// SplitWindow splits text into fixed-size windows of chunkSize runes,
// each window starting overlap runes before the previous one ended.
func SplitWindow(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultWindowOverlap
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(runes); {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[i:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= len(runes) {
			break
		}
		next := end - overlap
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return chunks
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
