package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/pkg/errors"
	lzf "github.com/zhuyie/golzf"

	"github.com/seqsense/pcdclick/dataset"
)

const (
	formatVersion = 1

	flagCompressed = 1 << 0

	headerSize = 4 + 4 + 4 + 8
)

var magic = [4]byte{'P', 'C', 'S', 'C'}

var ErrCorrupt = errors.New("corrupt cache file")

// Encode serializes the state. The payload is gob encoded and LZF
// compressed when compression fits.
func Encode(s *dataset.State) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(s); err != nil {
		return nil, errors.Wrap(err, "encoding state")
	}

	payload := raw.Bytes()
	var flags uint32
	out := make([]byte, len(payload)+len(payload)/16+64)
	if n, err := lzf.Compress(payload, out); err == nil && n > 0 && n < len(payload) {
		payload = out[:n]
		flags |= flagCompressed
	}

	buf := make([]byte, headerSize, headerSize+len(payload))
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], formatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], flags)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(raw.Len()))
	return append(buf, payload...), nil
}

// Decode parses data written by Encode.
func Decode(b []byte) (*dataset.State, error) {
	if len(b) < headerSize || !bytes.Equal(b[0:4], magic[:]) {
		return nil, ErrCorrupt
	}
	if v := binary.LittleEndian.Uint32(b[4:8]); v != formatVersion {
		return nil, errors.Wrapf(ErrCorrupt, "format version %d", v)
	}
	flags := binary.LittleEndian.Uint32(b[8:12])
	size := binary.LittleEndian.Uint64(b[12:20])
	payload := b[headerSize:]

	if flags&flagCompressed != 0 {
		if size > uint64(len(payload))*1024 {
			return nil, errors.Wrap(ErrCorrupt, "implausible uncompressed size")
		}
		dec := make([]byte, size)
		n, err := lzf.Decompress(payload, dec)
		if err != nil {
			return nil, errors.Wrap(ErrCorrupt, err.Error())
		}
		payload = dec[:n]
	}
	if uint64(len(payload)) != size {
		return nil, errors.Wrap(ErrCorrupt, "size mismatch")
	}

	s := &dataset.State{}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(s); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// validate checks that every stored area and object still has a point
// to draw.
func validate(s *dataset.State) error {
	for i, a := range s.Areas {
		if a == nil || len(a.Objects) == 0 {
			return errors.Wrapf(ErrCorrupt, "area %d has no object", i)
		}
		for _, o := range a.Objects {
			if o == nil || len(o.Points) == 0 {
				return errors.Wrapf(ErrCorrupt, "empty object in %s", a.Path)
			}
			for _, p := range o.Points {
				if p < 0 {
					return errors.Wrapf(ErrCorrupt, "negative point index %d in %s", p, a.Path)
				}
			}
		}
	}
	return nil
}
