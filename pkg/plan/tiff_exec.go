package plan

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/garyhouston/tiff66"

	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/svsdesc"
	"github.com/clinical-imaging/slideredact/pkg/tiffmeta"
)

// ExecuteTIFF carries out p's resolved steps against its IFD tree in place
// (§4.7, Phase A then Phase B) and serializes the result, ready to write to
// disk. p is consumed: its tree is mutated and must not be reused.
func ExecuteTIFF(p *TIFFPlan) ([]byte, error) {
	links := buildParentLinks(p.Root)
	if err := executeAssociatedImages(p, links); err != nil {
		return nil, fmt.Errorf("%s: %w", p.ImagePath, err)
	}
	if err := executeTIFFMetadata(p); err != nil {
		return nil, fmt.Errorf("%s: %w", p.ImagePath, err)
	}

	p.Root.Fix()
	size := tiff66.HeaderSize + p.Root.TreeSize()
	buf := make([]byte, size)
	tiff66.PutHeader(buf, p.Order, tiff66.HeaderSize)
	next, err := p.Root.PutIFDTree(buf, tiff66.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%s: serializing redacted TIFF: %w", p.ImagePath, err)
	}
	return buf[:next], nil
}

// link records how a node is reachable from its parent, so it can be
// spliced out of the tree (Next chain or a SubIFDs entry) without a
// second tree walk to relocate it.
type link struct {
	parent *tiff66.IFDNode
	isNext bool
}

func buildParentLinks(root *tiff66.IFDNode) map[*tiff66.IFDNode]link {
	links := map[*tiff66.IFDNode]link{}
	var walk func(n *tiff66.IFDNode)
	walk = func(n *tiff66.IFDNode) {
		if n == nil {
			return
		}
		for _, sub := range n.SubIFDs {
			links[sub.Node] = link{parent: n}
			walk(sub.Node)
		}
		if n.Next != nil {
			links[n.Next] = link{parent: n, isNext: true}
			walk(n.Next)
		}
	}
	walk(root)
	return links
}

func removeNode(links map[*tiff66.IFDNode]link, node *tiff66.IFDNode) {
	l, ok := links[node]
	if !ok {
		return // root has no parent; nothing to splice
	}
	if l.isNext {
		l.parent.Next = node.Next
		return
	}
	kept := l.parent.SubIFDs[:0]
	for _, sub := range l.parent.SubIFDs {
		if sub.Node != node {
			kept = append(kept, sub)
		}
	}
	l.parent.SubIFDs = kept
}

// replaceNode swaps oldNode for newNode in the tree and in links: every
// entry that named oldNode as its parent (oldNode's own children) is
// repointed to newNode, and oldNode's own link slot is transferred so a
// later removeNode/replaceNode on a sibling still finds the right splice
// point. If oldNode is p.Root, the caller repoints p.Root itself.
func replaceNode(p *TIFFPlan, links map[*tiff66.IFDNode]link, oldNode, newNode *tiff66.IFDNode) {
	newNode.Next = oldNode.Next
	newNode.SubIFDs = oldNode.SubIFDs

	for child, l := range links {
		if l.parent == oldNode {
			links[child] = link{parent: newNode, isNext: l.isNext}
		}
	}

	if oldNode == p.Root {
		p.Root = newNode
		return
	}

	l, ok := links[oldNode]
	if !ok {
		return
	}
	if l.isNext {
		l.parent.Next = newNode
	} else {
		for i, sub := range l.parent.SubIFDs {
			if sub.Node == oldNode {
				l.parent.SubIFDs[i].Node = newNode
			}
		}
	}
	delete(links, oldNode)
	links[newNode] = l
}

// executeAssociatedImages applies Phase A: every non-tiled IFD carrying an
// associated-image step is kept, deleted (spliced from the tree), or
// swapped for a blank same-size JPEG IFD.
func executeAssociatedImages(p *TIFFPlan, links map[*tiff66.IFDNode]link) error {
	for _, n := range p.Nodes {
		id, ok := p.IDs[n]
		if !ok {
			continue
		}
		step, ok := p.AssociatedImageSteps[id]
		if !ok {
			continue
		}
		switch step.Action.(type) {
		case rule.Keep:
			// unchanged
		case rule.Delete:
			removeNode(links, n)
		case rule.Replace:
			blank, err := buildBlankAssociatedImage(n, p.Order)
			if err != nil {
				return err
			}
			replaceNode(p, links, n, blank)
		default:
			return fmt.Errorf("associated image action %T has no meaning for TIFF/SVS", step.Action)
		}
	}
	return nil
}

// buildBlankAssociatedImage constructs a new IFD of n's width and height,
// filled with zeros and baseline-JPEG compressed, carrying forward only
// n's ASCII-valued fields (never ICC profiles, orientation, or other
// binary fields that could influence how a decoder renders the blank).
func buildBlankAssociatedImage(n *tiff66.IFDNode, order binary.ByteOrder) (*tiff66.IFDNode, error) {
	width, _ := tiffmeta.FieldValue(n, tiff66.ImageWidth, order)
	height, _ := tiffmeta.FieldValue(n, tiff66.ImageLength, order)
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}

	jpegBytes, err := blankBaselineJPEG(int(width), int(height))
	if err != nil {
		return nil, fmt.Errorf("encoding blank associated image: %w", err)
	}

	blank := &tiff66.IFDNode{}
	blank.Order = order
	blank.SpaceRec = tiff66.TIFFSpaceRec{Space: tiff66.TIFFSpace}

	for _, f := range n.Fields {
		if f.Type == tiff66.ASCII {
			blank.Fields = append(blank.Fields, f)
		}
	}

	blank.Fields = append(blank.Fields,
		uint32Field(tiff66.ImageWidth, order, width),
		uint32Field(tiff66.ImageLength, order, height),
		uint32Field(tiff66.BitsPerSample, order, 8),
		uint32Field(tiff66.Compression, order, 7), // JPEG, TIFF6 Technical Note 2
		uint32Field(tiff66.PhotometricInterpretation, order, 1), // BlackIsZero
		uint32Field(tiff66.SamplesPerPixel, order, 1),
		uint32Field(tiff66.RowsPerStrip, order, height),
		uint32Field(tiff66.StripOffsets, order, 0), // filled in by tiff66.Put via ImageData
		uint32Field(tiff66.StripByteCounts, order, uint32(len(jpegBytes))),
	)
	blank.ImageData = []tiff66.ImageData{{
		OffsetTag: tiff66.StripOffsets,
		SizeTag:   tiff66.StripByteCounts,
		Segments:  []tiff66.ImageSegment{jpegBytes},
	}}

	return blank, nil
}

// blankBaselineJPEG renders an all-zero grayscale image of the given
// dimensions as a standard baseline JPEG bitstream.
func blankBaselineJPEG(width, height int) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func uint32Field(t tiff66.Tag, order binary.ByteOrder, val uint32) tiff66.Field {
	data := make([]byte, 4)
	order.PutUint32(data, val)
	return tiff66.Field{Tag: t, Type: tiff66.LONG, Count: 1, Data: data}
}

// executeTIFFMetadata applies Phase B over every recorded metadata step,
// resolving check_type and (for SVS) re-serializing the description
// sub-layer after applying its own steps.
func executeTIFFMetadata(p *TIFFPlan) error {
	for _, n := range p.Nodes {
		id, ok := p.IDs[n]
		if !ok {
			continue
		}
		kept := n.Fields[:0]
		for _, f := range n.Fields {
			// The SVS description layer is handled as its own
			// sub-pass and was already pulled out of MetadataSteps
			// by the SVS plan builder, so it must be checked before
			// (not after) the metadata_steps lookup below.
			if n == p.DescriptionIFD && f.Tag == tiff66.ImageDescription {
				newField, keepIt, err := applySVSDescription(f, p)
				if err != nil {
					return err
				}
				if keepIt {
					kept = append(kept, newField)
				}
				continue
			}

			step, ok := p.MetadataSteps[ElementID{IFD: id, Tag: f.Tag}]
			if !ok {
				kept = append(kept, f)
				continue
			}

			newField, keepIt, err := applyTIFFFieldAction(f, step.Action)
			if err != nil {
				return err
			}
			if keepIt {
				kept = append(kept, newField)
			}
		}
		n.Fields = kept
	}
	return nil
}

func applyTIFFFieldAction(f tiff66.Field, action rule.Action) (tiff66.Field, bool, error) {
	switch a := action.(type) {
	case rule.Keep:
		return f, true, nil
	case rule.Delete:
		return f, false, nil
	case rule.Replace:
		return replaceTIFFField(f, a.Value), true, nil
	case rule.CheckType:
		if checkTIFFFieldType(f, a) {
			return f, true, nil
		}
		return f, false, nil
	default:
		return f, false, fmt.Errorf("TIFF/SVS metadata action %T is not valid outside DICOM", action)
	}
}

// replaceTIFFField overwrites f's value with a fixed literal, always as
// ASCII text: tiff66's Field carries its byte type alongside its data, so
// a replacement that changed a field's Type out from under its neighbors
// without updating Count would desync Size() from the bytes actually
// written.
func replaceTIFFField(f tiff66.Field, value any) tiff66.Field {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}
	f.Type = tiff66.ASCII
	f.PutASCII(s)
	f.Count = uint32(len(f.Data))
	return f
}

// checkTIFFFieldType resolves a check_type action against the Python-level
// scalar kind of a tag entry per §4.7. Unlike the DICOM executor (which
// ignores Kind and checks the value against its VR's class), the TIFF/SVS kind vocabulary
// names the reference container library's runtime types directly:
// "integer", "number" (integer or float), "text", and "rational" (a
// sequence of integers twice as long as the expected element count,
// i.e. one numerator/denominator pair per element). When Count is set,
// a multi-valued field must also match it exactly.
func checkTIFFFieldType(f tiff66.Field, c rule.CheckType) bool {
	if c.Count > 0 && f.Count != uint32(c.Count) {
		return false
	}
	switch c.Kind {
	case "integer":
		return f.Type.IsIntegral()
	case "number":
		return f.Type.IsIntegral() || f.Type.IsFloat()
	case "text":
		return f.Type == tiff66.ASCII
	case "rational":
		return f.Type.IsRational()
	default:
		return false
	}
}

// applySVSDescription parses the first-IFD ImageDescription via the pipe
// codec, applies every description-level step to its entries, and
// re-serializes the result back into the field. A modify_date step sets
// Date/Time/Time Zone to their neutral values per §4.7; an entry that
// fails that coercion is deleted from the description rather than left
// stale.
func applySVSDescription(f tiff66.Field, p *TIFFPlan) (tiff66.Field, bool, error) {
	desc := svsdesc.Parse(f.ASCII())

	// Snapshot keys before mutating: Delete shifts desc.Entries in place,
	// so ranging over the live slice while deleting would skip entries.
	keys := make([]string, len(desc.Entries))
	for i, e := range desc.Entries {
		keys[i] = e.Key
	}

	for _, key := range keys {
		step, ok := p.DescriptionSteps[key]
		if !ok {
			continue
		}
		value, present := desc.Get(key)
		if !present {
			continue
		}
		switch a := step.Action.(type) {
		case rule.Keep:
		case rule.Delete:
			desc.Delete(key)
		case rule.Replace:
			desc.Set(key, a.Value)
		case rule.ModifyDate:
			applySVSDateEntry(&desc, key)
		case rule.CheckType:
			if !checkSVSEntryType(value, a) {
				desc.Delete(key)
			}
		default:
			return f, false, fmt.Errorf("description action %T is not valid for SVS", step.Action)
		}
	}
	f.PutASCII(desc.Serialize())
	f.Count = uint32(len(f.Data))
	return f, true, nil
}

// applySVSDateEntry sets key to the neutral value matching its SVS
// convention: Date collapses to 01/01/<YY>, Time to 00:00:00, Time Zone
// to GMT+0000. Any other key under a modify_date rule has no defined
// neutral form and is deleted.
func applySVSDateEntry(desc *svsdesc.Description, key string) {
	switch key {
	case "Date":
		if e, ok := desc.Get(key); ok {
			if s, ok := e.(string); ok && len(s) >= 2 {
				yy := s[len(s)-2:]
				desc.Set(key, "01/01/"+yy)
				return
			}
		}
		desc.Delete(key)
	case "Time":
		desc.Set(key, "00:00:00")
	case "Time Zone":
		desc.Set(key, "GMT+0000")
	default:
		desc.Delete(key)
	}
}

// checkSVSEntryType applies the same "integer"/"number"/"text" vocabulary
// as checkTIFFFieldType against an svsdesc.Entry's coerced Go value.
func checkSVSEntryType(value any, c rule.CheckType) bool {
	switch c.Kind {
	case "integer":
		_, ok := value.(int64)
		return ok
	case "number":
		switch value.(type) {
		case int64, float64:
			return true
		}
		return false
	case "text":
		_, ok := value.(string)
		return ok
	default:
		return false
	}
}
