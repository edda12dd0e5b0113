package plan

import (
	"encoding/binary"

	"github.com/garyhouston/tiff66"
)

func longField(tag tiff66.Tag, order binary.ByteOrder, val uint32) tiff66.Field {
	data := make([]byte, 4)
	order.PutUint32(data, val)
	return tiff66.Field{Tag: tag, Type: tiff66.LONG, Count: 1, Data: data}
}

func asciiField(tag tiff66.Tag, s string) tiff66.Field {
	data := append([]byte(s), 0)
	return tiff66.Field{Tag: tag, Type: tiff66.ASCII, Count: uint32(len(data)), Data: data}
}

func ifdNode(order binary.ByteOrder, fields ...tiff66.Field) *tiff66.IFDNode {
	n := &tiff66.IFDNode{}
	n.Order = order
	n.Fields = fields
	n.SpaceRec = tiff66.TIFFSpaceRec{Space: tiff66.TIFFSpace}
	return n
}

// serializeTIFF renders root (and anything it links to) as a complete
// TIFF byte stream, the inverse of what BuildTIFF/BuildSVS read back in.
func serializeTIFF(root *tiff66.IFDNode, order binary.ByteOrder) []byte {
	root.Fix()
	buf := make([]byte, tiff66.HeaderSize+root.TreeSize())
	tiff66.PutHeader(buf, order, tiff66.HeaderSize)
	if _, err := root.PutIFDTree(buf, tiff66.HeaderSize); err != nil {
		panic(err)
	}
	return buf
}
