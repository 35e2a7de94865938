package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is one changed region between two snapshot listings.
type DiffLine struct {
	Op   string `json:"op"` // "insert", "delete", or "equal"
	Text string `json:"text"`
}

// SnapshotDiff describes how a program changed between two snapshots.
type SnapshotDiff struct {
	BaseID   string     `json:"base_id"`
	HeadID   string     `json:"head_id"`
	BaseHash string     `json:"base_hash"`
	HeadHash string     `json:"head_hash"`
	Changed  bool       `json:"changed"`
	Lines    []DiffLine `json:"lines"`
}

// DiffSnapshots loads two snapshots of the same session and computes a
// line-oriented diff of their disassembly listings.
func (s *Store) DiffSnapshots(ctx context.Context, baseID, headID string) (*SnapshotDiff, error) {
	base, err := s.GetSnapshot(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("store: base snapshot: %w", err)
	}
	head, err := s.GetSnapshot(ctx, headID)
	if err != nil {
		return nil, fmt.Errorf("store: head snapshot: %w", err)
	}
	if base.SessionID != head.SessionID {
		return nil, fmt.Errorf("store: snapshots belong to different sessions")
	}
	return DiffListings(base, head), nil
}

// DiffListings diffs two snapshot listings line by line.
func DiffListings(base, head *SnapshotRecord) *SnapshotDiff {
	dmp := diffmatchpatch.New()
	// Line-mode diff: map lines to runes, diff, then unmap.
	c1, c2, lines := dmp.DiffLinesToRunes(base.Listing, head.Listing)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(c1, c2, false), lines)

	out := &SnapshotDiff{
		BaseID:   base.ID,
		HeadID:   head.ID,
		BaseHash: base.Hash,
		HeadHash: head.Hash,
	}
	for _, d := range diffs {
		text := strings.TrimRight(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			out.Changed = true
			out.Lines = append(out.Lines, DiffLine{Op: "insert", Text: text})
		case diffmatchpatch.DiffDelete:
			out.Changed = true
			out.Lines = append(out.Lines, DiffLine{Op: "delete", Text: text})
		case diffmatchpatch.DiffEqual:
			out.Lines = append(out.Lines, DiffLine{Op: "equal", Text: text})
		}
	}
	return out
}
