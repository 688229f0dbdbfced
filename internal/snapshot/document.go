package snapshot

// StageState is one stage's serialized type tag plus opaque state bytes.
type StageState struct {
	Type  string
	State []byte
}

// Document is the root snapshot container (spec §3/§6):
//
//	root := OBJECT_START
//	        STRING("timestamp") DOUBLE
//	        STRING("stageCount") INT32
//	        STRING("stages") ARRAY_START stage* ARRAY_END
//	        OBJECT_END
type Document struct {
	Timestamp float64
	Stages    []StageState
}

// Encode serializes doc to the binary tag protocol.
func Encode(doc Document) []byte {
	w := NewWriter()
	w.WriteObjectStart()
	w.WriteString("timestamp")
	w.WriteDouble(doc.Timestamp)
	w.WriteString("stageCount")
	w.WriteInt32(int32(len(doc.Stages)))
	w.WriteString("stages")
	w.WriteArrayStart()
	for _, s := range doc.Stages {
		w.WriteObjectStart()
		w.WriteString("type")
		w.WriteString(s.Type)
		w.WriteString("state")
		w.buf = append(w.buf, s.State...)
		w.WriteObjectEnd()
	}
	w.WriteArrayEnd()
	w.WriteObjectEnd()
	return w.Bytes()
}

// Decode parses a root Document from raw bytes. Per-stage state bytes are
// NOT further interpreted here: the stage's own Deserialize reads its
// sub-stream via a Reader positioned right after the "state" key, up to
// whatever bracketing tags that stage's layout defines. Since this root
// layout only fixes {type, state} and leaves "state"'s internal shape to
// each stage, Decode here returns state as the raw remaining bytes of one
// stage-state value for the caller to hand to that stage's own Reader;
// concretely it captures everything between "state" and the stage's
// OBJECT_END by requiring every per-stage state encoder to itself bracket
// its payload in OBJECT_START/OBJECT_END so the boundary is unambiguous.
func Decode(data []byte) (Document, error) {
	r := NewReader(data)
	var doc Document

	if err := r.ExpectObjectStart(); err != nil {
		return doc, err
	}
	if _, err := r.ReadString(); err != nil { // "timestamp"
		return doc, err
	}
	ts, err := r.ReadDouble()
	if err != nil {
		return doc, err
	}
	doc.Timestamp = ts

	if _, err := r.ReadString(); err != nil { // "stageCount"
		return doc, err
	}
	count, err := r.ReadInt32()
	if err != nil {
		return doc, err
	}

	if _, err := r.ReadString(); err != nil { // "stages"
		return doc, err
	}
	if err := r.ExpectArrayStart(); err != nil {
		return doc, err
	}

	doc.Stages = make([]StageState, 0, count)
	for i := int32(0); i < count; i++ {
		if err := r.ExpectObjectStart(); err != nil {
			return doc, err
		}
		if _, err := r.ReadString(); err != nil { // "type"
			return doc, err
		}
		stageType, err := r.ReadString()
		if err != nil {
			return doc, err
		}
		if _, err := r.ReadString(); err != nil { // "state"
			return doc, err
		}
		stateBytes, err := captureBracketedValue(r)
		if err != nil {
			return doc, err
		}
		if err := r.ExpectObjectEnd(); err != nil {
			return doc, err
		}
		doc.Stages = append(doc.Stages, StageState{Type: stageType, State: stateBytes})
	}
	if err := r.ExpectArrayEnd(); err != nil {
		return doc, err
	}
	if err := r.ExpectObjectEnd(); err != nil {
		return doc, err
	}
	return doc, nil
}

// captureBracketedValue consumes one fully-bracketed OBJECT_START..
// OBJECT_END (or ARRAY_START..ARRAY_END) value from r, tracking nesting,
// and returns the raw bytes spanning it (inclusive of its own brackets) so
// the caller's stage can re-parse it with a fresh Reader.
func captureBracketedValue(r *Reader) ([]byte, error) {
	start := r.pos
	t, err := r.readTag()
	if err != nil {
		return nil, err
	}
	switch t {
	case TagObjectStart, TagArrayStart:
		depth := 1
		for depth > 0 {
			inner, err := r.readTag()
			if err != nil {
				return nil, err
			}
			switch inner {
			case TagObjectStart, TagArrayStart:
				depth++
			case TagObjectEnd, TagArrayEnd:
				depth--
			case TagInt32:
				if _, err := r.take(4); err != nil {
					return nil, err
				}
			case TagFloat:
				if _, err := r.take(4); err != nil {
					return nil, err
				}
			case TagDouble:
				if _, err := r.take(8); err != nil {
					return nil, err
				}
			case TagBool:
				if _, err := r.take(1); err != nil {
					return nil, err
				}
			case TagString:
				lb, err := r.take(4)
				if err != nil {
					return nil, err
				}
				n := int(leUint32(lb))
				if _, err := r.take(n); err != nil {
					return nil, err
				}
			case TagFloatArray:
				lb, err := r.take(4)
				if err != nil {
					return nil, err
				}
				n := int(leUint32(lb))
				if _, err := r.take(n * 4); err != nil {
					return nil, err
				}
			case TagNull:
				// no payload
			default:
				return nil, r.corrupt("unknown tag while scanning bracketed value")
			}
		}
	case TagNull, TagInt32, TagFloat, TagDouble, TagBool, TagString, TagFloatArray:
		// A stage may also serialize a single unbracketed scalar as its
		// whole state; rewind and let the generic tag-skip above not
		// apply — consume the matching payload here instead.
		r.pos = start
		if err := skipValue(r); err != nil {
			return nil, err
		}
	default:
		return nil, r.corrupt("unknown tag while capturing state value")
	}
	return append([]byte(nil), r.buf[start:r.pos]...), nil
}

func skipValue(r *Reader) error {
	t, err := r.readTag()
	if err != nil {
		return err
	}
	switch t {
	case TagNull:
	case TagInt32, TagFloat:
		_, err = r.take(4)
	case TagDouble:
		_, err = r.take(8)
	case TagBool:
		_, err = r.take(1)
	case TagString:
		var lb []byte
		lb, err = r.take(4)
		if err == nil {
			_, err = r.take(int(leUint32(lb)))
		}
	case TagFloatArray:
		var lb []byte
		lb, err = r.take(4)
		if err == nil {
			_, err = r.take(int(leUint32(lb)) * 4)
		}
	default:
		return r.corrupt("unknown scalar tag")
	}
	return err
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
