package scene

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbHeaderLen = 12
)

var ErrNotGLB = errors.New("not a binary glTF model")

// Model is what the composer needs to know about a .glb file.
type Model struct {
	Version    uint32
	Size       int
	Animations []string
}

// ParseGLB checks the binary glTF header and reads the animation names from
// the JSON chunk.
func ParseGLB(b []byte) (*Model, error) {
	if len(b) < glbHeaderLen || binary.LittleEndian.Uint32(b[0:4]) != glbMagic {
		return nil, ErrNotGLB
	}
	m := &Model{Version: binary.LittleEndian.Uint32(b[4:8]), Size: len(b)}
	declared := binary.LittleEndian.Uint32(b[8:12])
	if int(declared) > len(b) {
		return nil, fmt.Errorf("%w: truncated (%d of %d bytes)", ErrNotGLB, len(b), declared)
	}
	if len(b) < glbHeaderLen+8 {
		return m, nil
	}
	chunkLen := binary.LittleEndian.Uint32(b[12:16])
	chunkType := binary.LittleEndian.Uint32(b[16:20])
	if chunkType != glbChunkJSON || int(chunkLen) > len(b)-20 {
		return m, nil
	}
	var doc struct {
		Animations []struct {
			Name string `json:"name"`
		} `json:"animations"`
	}
	if err := json.NewDecoder(bytes.NewReader(b[20 : 20+chunkLen])).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: bad json chunk: %v", ErrNotGLB, err)
	}
	for _, a := range doc.Animations {
		m.Animations = append(m.Animations, a.Name)
	}
	return m, nil
}

// BuildGLB assembles a minimal binary glTF around a JSON document. Used by
// tests and the fixture avatar.
func BuildGLB(doc any) []byte {
	js, _ := json.Marshal(doc)
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	var buf bytes.Buffer
	total := uint32(glbHeaderLen + 8 + len(js))
	_ = binary.Write(&buf, binary.LittleEndian, []uint32{glbMagic, 2, total, uint32(len(js)), glbChunkJSON})
	buf.Write(js)
	return buf.Bytes()
}
