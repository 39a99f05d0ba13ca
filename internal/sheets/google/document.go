package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"finanzas/internal/core"
)

// Layout of the snapshot sheet: row 1 carries metadata, rows 2..n+1 hold
// the JSON payload split across column A.
const (
	documentMarker = "finanzas-snapshot"
	documentFormat = "1"

	// Sheets caps a cell at 50k characters.
	maxCellBytes = 45000
)

var ErrCorruptDocument = errors.New("corrupt snapshot document")

// encodeDocument renders snap as sheet rows.
func encodeDocument(snap core.Snapshot) ([][]any, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	chunks := chunkString(string(payload), maxCellBytes)

	rows := make([][]any, 0, len(chunks)+1)
	rows = append(rows, []any{
		documentMarker,
		documentFormat,
		snap.SavedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(len(chunks)),
		strconv.Itoa(len(payload)),
	})
	for _, c := range chunks {
		rows = append(rows, []any{c})
	}
	return rows, nil
}

// decodeDocument reassembles a snapshot from sheet rows. An empty sheet
// reports ok=false.
func decodeDocument(values [][]any) (core.Snapshot, bool, error) {
	if len(values) == 0 || len(values[0]) == 0 || cellString(values[0], 0) == "" {
		return core.Snapshot{}, false, nil
	}
	meta := values[0]
	if cellString(meta, 0) != documentMarker {
		return core.Snapshot{}, false, fmt.Errorf("%w: missing marker", ErrCorruptDocument)
	}
	if f := cellString(meta, 1); f != documentFormat {
		return core.Snapshot{}, false, fmt.Errorf("%w: unsupported format %q", ErrCorruptDocument, f)
	}
	count, err := strconv.Atoi(cellString(meta, 3))
	if err != nil || count < 0 {
		return core.Snapshot{}, false, fmt.Errorf("%w: bad chunk count", ErrCorruptDocument)
	}
	size, err := strconv.Atoi(cellString(meta, 4))
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("%w: bad payload size", ErrCorruptDocument)
	}
	if len(values)-1 < count {
		return core.Snapshot{}, false, fmt.Errorf("%w: %d of %d chunks present", ErrCorruptDocument, len(values)-1, count)
	}

	var b strings.Builder
	b.Grow(size)
	for _, row := range values[1 : count+1] {
		b.WriteString(cellString(row, 0))
	}
	if b.Len() != size {
		return core.Snapshot{}, false, fmt.Errorf("%w: payload is %d bytes, want %d", ErrCorruptDocument, b.Len(), size)
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(b.String()), &snap); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// chunkString splits s into pieces of at most n bytes without cutting a
// UTF-8 sequence.
func chunkString(s string, n int) []string {
	var out []string
	for len(s) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = n
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func cellString(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprint(row[i])
}
