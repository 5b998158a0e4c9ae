package palette

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/riff"
)

/*
typedef struct tagLOGPALETTE {
  WORD         palVersion;
  WORD         palNumEntries;
  PALETTEENTRY palPalEntry[1];
} LOGPALETTE;

typedef struct tagPALETTEENTRY {
  BYTE peRed;
  BYTE peGreen;
  BYTE peBlue;
  BYTE peFlags;
} PALETTEENTRY;
*/

var (
	riffType = riff.FourCC{'R', 'I', 'F', 'F'}
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

// ReadRIFF reads the first LOGPALETTE data chunk from a RIFF PAL stream.
func ReadRIFF(r io.Reader) (color.Palette, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	} else if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type: %s", string(formType[:]))
	}

	for {
		id, _, data, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				return nil, errors.New("RIFF stream has no palette data chunk")
			}
			return nil, fmt.Errorf("could not read chunk: %w", err)
		}

		if id != dataType {
			continue
		}

		return readLogPalette(data)
	}
}

func readLogPalette(r io.Reader) (color.Palette, error) {
	buf := make([]byte, 2)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("could not read palette version: %w", err)
	}
	if ver := binary.BigEndian.Uint16(buf); ver != 3 {
		return nil, fmt.Errorf("unsupported palette version: %d", ver)
	}

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("could not read number of entries: %w", err)
	}
	count := binary.LittleEndian.Uint16(buf)

	res := make(color.Palette, count)
	buf4 := make([]byte, 4)
	for i := range count {
		if _, err := io.ReadFull(r, buf4); err != nil {
			return res, fmt.Errorf("could not read color %d/%d: %w", i, count, err)
		}

		res[i] = color.RGBA{
			R: buf4[0],
			G: buf4[1],
			B: buf4[2],
			A: 0xFF,
		}
	}

	return res, nil
}

// WriteRIFF serializes the grid as a single-palette RIFF PAL document, the
// inverse of ReadRIFF.
func (g *Grid) WriteRIFF(w io.Writer) error {
	// content type + chunk header + palVersion + palNumEntries + 4 bytes/color
	n := 4 + 4 + 4 + 4 + len(g.rgb)*4

	if err := writeBytes(w, riffType[:]); err != nil {
		return fmt.Errorf("could not write RIFF magic: %w", err)
	}

	if err := writeBytes(w, binary.LittleEndian.AppendUint32(nil, uint32(n))); err != nil {
		return fmt.Errorf("could not write document size: %w", err)
	}

	if err := writeBytes(w, palType[:]); err != nil {
		return fmt.Errorf("could not write content type: %w", err)
	}

	if err := writeBytes(w, dataType[:]); err != nil {
		return fmt.Errorf("could not write chunk type: %w", err)
	}

	if err := writeBytes(w, binary.LittleEndian.AppendUint32(nil, uint32(4+len(g.rgb)*4))); err != nil {
		return fmt.Errorf("could not write chunk size: %w", err)
	}

	if err := writeBytes(w, []byte{0, 0x03}); err != nil {
		return fmt.Errorf("could not write palette version: %w", err)
	}

	if err := writeBytes(w, binary.LittleEndian.AppendUint16(nil, uint16(len(g.rgb)))); err != nil {
		return fmt.Errorf("could not write number of colors: %w", err)
	}

	for i, c := range g.rgb {
		if err := writeBytes(w, []byte{c.R, c.G, c.B, 0x00}); err != nil {
			return fmt.Errorf("could not write color %d/%d: %w", i, len(g.rgb), err)
		}
	}

	return nil
}

func writeBytes(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	} else if n != len(b) {
		return fmt.Errorf("wrote only %d/%d bytes", n, len(b))
	}

	return nil
}
