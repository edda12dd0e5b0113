// Package tiffmeta builds the structural helpers the TIFF/SVS plan
// builders need on top of garyhouston/tiff66's IFD tree: document-order
// traversal, tiled/associated-image classification, and SVS macro/label/
// thumbnail discovery.
package tiffmeta

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/garyhouston/tiff66"
)

// MaxPixels bounds which tiled IFD can be chosen as a thumbnail: a
// candidate whose width*height exceeds this is never a thumbnail, no
// matter how small its on-disk footprint.
const MaxPixels = 1_000_000_000

// NodeID is a stable, deterministic identity for an IFD within one parsed
// tree, substituting for the original file offset: tiff66's IFDNode does
// not retain its source byte position once parsed, so this package
// assigns identity by document-order traversal index instead. It is
// unique and stable for the lifetime of one parsed tree, which is all the
// plan/metadata_steps map needs.
type NodeID int

// Walk returns every node in root's tree (the Next-linked chain of
// top-level IFDs, recursing into each node's SubIFDs) in a deletion-safe
// order: a node's sub-IFDs are visited, and so appear earlier in the
// slice, before the node itself. Pre-order on the tag dimension (subtrees
// are fully explored depth-first before moving to the next sibling),
// post-order on yield.
func Walk(root *tiff66.IFDNode) []*tiff66.IFDNode {
	var out []*tiff66.IFDNode
	var visit func(n *tiff66.IFDNode)
	visit = func(n *tiff66.IFDNode) {
		if n == nil {
			return
		}
		for _, sub := range n.SubIFDs {
			visit(sub.Node)
		}
		out = append(out, n)
		visit(n.Next)
	}
	visit(root)
	return out
}

// Identities assigns every node in root's tree a NodeID, stable for as
// long as the tree is not re-parsed.
func Identities(root *tiff66.IFDNode) map[*tiff66.IFDNode]NodeID {
	nodes := Walk(root)
	ids := make(map[*tiff66.IFDNode]NodeID, len(nodes))
	for i, n := range nodes {
		ids[n] = NodeID(i)
	}
	return ids
}

// SortedNonIFDFields returns n's tag entries, excluding any field that
// points at a nested IFD (already modeled by n.SubIFDs), sorted by tag id.
func SortedNonIFDFields(n *tiff66.IFDNode) []tiff66.Field {
	ifdTags := make(map[tiff66.Tag]bool, len(n.SubIFDs))
	for _, sub := range n.SubIFDs {
		ifdTags[sub.Tag] = true
	}
	space := n.SpaceRec.GetSpace()
	out := make([]tiff66.Field, 0, len(n.Fields))
	for _, f := range n.Fields {
		if ifdTags[f.Tag] || f.IsIFD(space) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// IsTiled reports whether n is a tiled IFD, per the presence of a
// TileWidth tag.
func IsTiled(n *tiff66.IFDNode) bool {
	_, ok := FieldValue(n, tiff66.TileWidth, n.Order)
	return ok
}

// FieldValue returns the integer value of tag t in n, if present.
func FieldValue(n *tiff66.IFDNode, t tiff66.Tag, order binary.ByteOrder) (uint32, bool) {
	for _, f := range n.Fields {
		if f.Tag == t {
			return uint32(f.AnyInteger(0, order)), true
		}
	}
	return 0, false
}

// Description returns n's ImageDescription text, or "" if absent.
func Description(n *tiff66.IFDNode) string {
	for _, f := range n.Fields {
		if f.Tag == tiff66.ImageDescription {
			return f.ASCII()
		}
	}
	return ""
}

// Aperio's NewSubfileType convention for associated images is not part of
// the TIFF 6.0 baseline: ReducedImage (bit 0) is standard, Macro (bit 3)
// is Aperio-specific.
const (
	subfileReducedImage = 1
	subfileMacro        = 8
)

// LookupName resolves a TIFF tag name to its id via tiff66's baseline tag
// table. tiff66 does not partition its name table by GPS/EXIF namespace
// (a handful of callers do that by which IFD they're in, not by tag id
// range), so "baseline, then GPS, then EXIF" collapses here to a single
// reverse lookup against that one shared table; an unresolved name
// returns ok=false so the caller can fabricate a private/unknown tag
// entry instead.
func LookupName(name string) (tiff66.Tag, bool) {
	for tag, n := range tiff66.TagNames {
		if n == name {
			return tag, true
		}
	}
	return 0, false
}

// IsMacroImage classifies a non-tiled IFD as an SVS macro image: its
// ImageDescription mentions "macro", or its NewSubfileType carries both
// the ReducedImage and Macro bits.
func IsMacroImage(n *tiff66.IFDNode) bool {
	if strings.Contains(strings.ToLower(Description(n)), "macro") {
		return true
	}
	if nst, ok := FieldValue(n, tiff66.NewSubfileType, n.Order); ok {
		want := uint32(subfileReducedImage | subfileMacro)
		return nst&want == want
	}
	return false
}

// IsLabelImage classifies a non-tiled IFD as an SVS label image: its
// ImageDescription mentions "label", or its NewSubfileType equals 1.
func IsLabelImage(n *tiff66.IFDNode) bool {
	if IsTiled(n) {
		return false
	}
	if strings.Contains(strings.ToLower(Description(n)), "label") {
		return true
	}
	if nst, ok := FieldValue(n, tiff66.NewSubfileType, n.Order); ok {
		return nst == subfileReducedImage
	}
	return false
}

// SelectThumbnail picks a thumbnail IFD from candidates (tiled IFDs whose
// pixel count is within MaxPixels): it prefers the smallest candidate
// whose width and height are both at least (minW, minH); if none is
// large enough, it falls back to the smallest candidate overall. Ties are
// broken by document order (the order nodes appears in), since the first
// encountered is kept unless a strictly smaller one follows.
func SelectThumbnail(nodes []*tiff66.IFDNode, minW, minH uint32) *tiff66.IFDNode {
	type candidate struct {
		node    *tiff66.IFDNode
		w, h    uint32
		pixels  uint64
	}
	var all []candidate
	for _, n := range nodes {
		if !IsTiled(n) {
			continue
		}
		w, _ := FieldValue(n, tiff66.ImageWidth, n.Order)
		h, _ := FieldValue(n, tiff66.ImageLength, n.Order)
		pixels := uint64(w) * uint64(h)
		if pixels > MaxPixels {
			continue
		}
		all = append(all, candidate{n, w, h, pixels})
	}
	if len(all) == 0 {
		return nil
	}

	var sizedUp []candidate
	for _, c := range all {
		if c.w >= minW && c.h >= minH {
			sizedUp = append(sizedUp, c)
		}
	}

	pick := func(cands []candidate) *tiff66.IFDNode {
		best := cands[0]
		for _, c := range cands[1:] {
			if c.pixels < best.pixels {
				best = c
			}
		}
		return best.node
	}
	if len(sizedUp) > 0 {
		return pick(sizedUp)
	}
	return pick(all)
}
