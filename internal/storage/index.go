// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// IndexFileName is the index written to every output directory.
const IndexFileName = "sessions_index.md"

const indexTimeLayout = "2006-01-02 15:04:05"

// =============================================================================
// INDEX TYPES
// =============================================================================

// IndexEntry is one exported session.
type IndexEntry struct {
	SessionID string
	Project   string
	Summary   string
	Created   time.Time
	Updated   time.Time

	// File is the artifact name relative to the index.
	File string
}

// Index lists the exports of one directory, most recently updated first.
type Index struct {
	Entries []IndexEntry
}

// =============================================================================
// INDEX OPERATIONS
// =============================================================================

// LoadIndex reads the index of dir. A missing index is empty.
func LoadIndex(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{}, nil
		}
		return nil, err
	}
	return ParseIndex(data), nil
}

// ParseIndex reads index rows from Markdown. Rows that do not parse are
// dropped.
func ParseIndex(data []byte) *Index {
	idx := &Index{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if e, ok := parseRow(scanner.Text()); ok {
			idx.Entries = append(idx.Entries, e)
		}
	}
	return idx
}

// Upsert adds an entry or replaces the entry with the same session id.
func (idx *Index) Upsert(e IndexEntry) {
	for i := range idx.Entries {
		if idx.Entries[i].SessionID == e.SessionID {
			idx.Entries[i] = e
			return
		}
	}
	idx.Entries = append(idx.Entries, e)
}

// Prune drops entries whose artifact no longer exists in dir.
func (idx *Index) Prune(dir string) {
	kept := idx.Entries[:0]
	for _, e := range idx.Entries {
		if _, err := os.Stat(filepath.Join(dir, e.File)); err == nil {
			kept = append(kept, e)
		}
	}
	idx.Entries = kept
}

// Sort orders entries by last update, newest first, then by session id.
func (idx *Index) Sort() {
	sort.SliceStable(idx.Entries, func(i, j int) bool {
		a, b := idx.Entries[i], idx.Entries[j]
		if !a.Updated.Equal(b.Updated) {
			return a.Updated.After(b.Updated)
		}
		return a.SessionID < b.SessionID
	})
}

// Markdown renders the index table.
func (idx *Index) Markdown() []byte {
	var sb strings.Builder
	sb.WriteString("# Exported Sessions\n\n")
	sb.WriteString(fmt.Sprintf("Sessions: %d. Times are UTC.\n\n", len(idx.Entries)))
	sb.WriteString("| Last Updated | Created | Session ID | Project | Summary | File |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, e := range idx.Entries {
		sb.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s | %s | [%s](%s) |\n",
			formatIndexTime(e.Updated),
			formatIndexTime(e.Created),
			escapeCell(e.SessionID),
			escapeCell(e.Project),
			escapeCell(e.Summary),
			escapeCell(e.File),
			strings.ReplaceAll(e.File, " ", "%20")))
	}
	return []byte(sb.String())
}

// UpdateIndex merges entries into dir's index and rewrites it atomically.
func (s *ArtifactStore) UpdateIndex(entries ...IndexEntry) error {
	idx, err := LoadIndex(s.Dir)
	if err != nil {
		return writeError(filepath.Join(s.Dir, IndexFileName), err)
	}
	for _, e := range entries {
		idx.Upsert(e)
	}
	idx.Prune(s.Dir)
	idx.Sort()
	return s.Write(filepath.Join(s.Dir, IndexFileName), idx.Markdown())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func formatIndexTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(indexTimeLayout)
}

func parseIndexTime(s string) time.Time {
	t, err := time.ParseInLocation(indexTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func unescapeCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `\|`, "|")
}

// splitRow splits a table row on unescaped pipes.
func splitRow(line string) []string {
	var (
		cells []string
		cur   strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteString(`\|`)
			i++
		case line[i] == '|':
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}
	return append(cells, cur.String())
}

func parseRow(line string) (IndexEntry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
		return IndexEntry{}, false
	}
	cells := splitRow(line)
	// Leading and trailing pipes yield empty outer cells.
	if len(cells) != 8 {
		return IndexEntry{}, false
	}
	cells = cells[1:7]

	id := strings.Trim(unescapeCell(cells[2]), "`")
	file := unescapeCell(cells[5])
	if end := strings.Index(file, "]("); strings.HasPrefix(file, "[") && end > 0 {
		file = file[1:end]
	}
	if id == "" || id == "Session ID" || strings.HasPrefix(id, "---") || file == "" {
		return IndexEntry{}, false
	}
	return IndexEntry{
		SessionID: id,
		Project:   unescapeCell(cells[3]),
		Summary:   unescapeCell(cells[4]),
		Created:   parseIndexTime(unescapeCell(cells[1])),
		Updated:   parseIndexTime(unescapeCell(cells[0])),
		File:      file,
	}, true
}
