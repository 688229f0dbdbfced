// Package snapshot implements the tagged, length-prefixed binary codec
// used to serialize and restore stage state (spec §4.10/§6). Grounded on
// the single writer/reader struct wrapping a byte buffer, one method per
// primitive type, the shape of thesyncim-gopus/rangecoding/encoder.go and
// rangecoding/decoder.go (there a bit encoder/decoder; here a tagged-value
// encoder/decoder).
package snapshot

import (
	"encoding/binary"
	"math"

	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/trace"
)

// Tag identifies the type of the value that follows in the stream.
type Tag byte

const (
	TagNull Tag = iota
	TagInt32
	TagFloat
	TagDouble
	TagBool
	TagString
	TagFloatArray
	TagObjectStart
	TagObjectEnd
	TagArrayStart
	TagArrayEnd
)

// Writer appends tagged values to an in-memory byte buffer, little-endian,
// native width, as specified in §4.10.
type Writer struct {
	buf []byte
}

// NewWriter allocates an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated byte stream.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) putTag(t Tag) { w.buf = append(w.buf, byte(t)) }

// WriteNull appends a NULL tag.
func (w *Writer) WriteNull() { w.putTag(TagNull) }

// WriteInt32 appends a tagged int32.
func (w *Writer) WriteInt32(v int32) {
	w.putTag(TagInt32)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteFloat appends a tagged float32.
func (w *Writer) WriteFloat(v float32) {
	w.putTag(TagFloat)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteDouble appends a tagged float64.
func (w *Writer) WriteDouble(v float64) {
	w.putTag(TagDouble)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteBool appends a tagged 1-byte bool.
func (w *Writer) WriteBool(v bool) {
	w.putTag(TagBool)
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteString appends a tagged int32-length-prefixed string.
func (w *Writer) WriteString(s string) {
	w.putTag(TagString)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(s)))
	w.buf = append(w.buf, lb[:]...)
	w.buf = append(w.buf, s...)
}

// WriteFloatArray appends a tagged int32-count-prefixed float32 array.
func (w *Writer) WriteFloatArray(v []float32) {
	w.putTag(TagFloatArray)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(v)))
	w.buf = append(w.buf, lb[:]...)
	for _, f := range v {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
		w.buf = append(w.buf, b[:]...)
	}
}

// WriteObjectStart/End and WriteArrayStart/End bracket composite values.
func (w *Writer) WriteObjectStart() { w.putTag(TagObjectStart) }
func (w *Writer) WriteObjectEnd()   { w.putTag(TagObjectEnd) }
func (w *Writer) WriteArrayStart()  { w.putTag(TagArrayStart) }
func (w *Writer) WriteArrayEnd()    { w.putTag(TagArrayEnd) }

// Reader walks a tagged byte stream produced by Writer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for reading.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

func (r *Reader) corrupt(msg string) error {
	trace.Snapshot("corrupt at pos=%d: %s", r.pos, msg)
	return dspxerr.New(dspxerr.KindCorruptSnapshot, msg)
}

func (r *Reader) readTag() (Tag, error) {
	if r.pos >= len(r.buf) {
		return 0, r.corrupt("unexpected end of stream reading tag")
	}
	t := Tag(r.buf[r.pos])
	r.pos++
	return t, nil
}

func (r *Reader) expectTag(want Tag) error {
	t, err := r.readTag()
	if err != nil {
		return err
	}
	if t != want {
		return r.corrupt("unexpected tag")
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, r.corrupt("unexpected end of stream reading value")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadInt32 expects and consumes a tagged int32.
func (r *Reader) ReadInt32() (int32, error) {
	if err := r.expectTag(TagInt32); err != nil {
		return 0, err
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// ReadFloat expects and consumes a tagged float32.
func (r *Reader) ReadFloat() (float32, error) {
	if err := r.expectTag(TagFloat); err != nil {
		return 0, err
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ReadDouble expects and consumes a tagged float64.
func (r *Reader) ReadDouble() (float64, error) {
	if err := r.expectTag(TagDouble); err != nil {
		return 0, err
	}
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadBool expects and consumes a tagged bool.
func (r *Reader) ReadBool() (bool, error) {
	if err := r.expectTag(TagBool); err != nil {
		return false, err
	}
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadString expects and consumes a tagged length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	if err := r.expectTag(TagString); err != nil {
		return "", err
	}
	lb, err := r.take(4)
	if err != nil {
		return "", err
	}
	n := int(binary.LittleEndian.Uint32(lb))
	if n < 0 {
		return "", r.corrupt("negative string length")
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadFloatArray expects and consumes a tagged length-prefixed float32
// array.
func (r *Reader) ReadFloatArray() ([]float32, error) {
	if err := r.expectTag(TagFloatArray); err != nil {
		return nil, err
	}
	lb, err := r.take(4)
	if err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint32(lb))
	if n < 0 {
		return nil, r.corrupt("negative array length")
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	return out, nil
}

// ExpectObjectStart/End and ExpectArrayStart/End consume bracket tags.
func (r *Reader) ExpectObjectStart() error { return r.expectTag(TagObjectStart) }
func (r *Reader) ExpectObjectEnd() error   { return r.expectTag(TagObjectEnd) }
func (r *Reader) ExpectArrayStart() error  { return r.expectTag(TagArrayStart) }
func (r *Reader) ExpectArrayEnd() error    { return r.expectTag(TagArrayEnd) }
