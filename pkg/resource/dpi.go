package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DefaultDPI is the print resolution assumed when an image carries none.
const DefaultDPI = 300.0

// DPIStatus reports where an image's DPI came from.
type DPIStatus string

const (
	// DPIMetadata means the DPI was read from the image.
	DPIMetadata DPIStatus = "metadata"
	// DPIMissing means the image has no resolution metadata.
	DPIMissing DPIStatus = "missing"
	// DPICorrupt means resolution metadata was present but unreadable.
	DPICorrupt DPIStatus = "corrupt"
)

// ExtractDPI reads the print resolution from encoded image data. It returns
// DefaultDPI with DPIMissing or DPICorrupt when no usable value exists;
// err describes the corruption in the latter case.
func ExtractDPI(data []byte, format string) (float64, DPIStatus, error) {
	var (
		dpi float64
		err error
	)
	switch format {
	case "png":
		dpi, err = pngDPI(data)
	case "jpeg":
		dpi, err = jfifDPI(data)
	case "tiff":
		dpi, err = tiffDPI(data)
	default:
		return DefaultDPI, DPIMissing, nil
	}
	switch {
	case err != nil:
		return DefaultDPI, DPICorrupt, err
	case dpi <= 0:
		return DefaultDPI, DPIMissing, nil
	}
	return dpi, DPIMetadata, nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// pngDPI reads the pHYs chunk. Returns 0 when absent or unitless.
func pngDPI(data []byte) (float64, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return 0, fmt.Errorf("png: bad signature")
	}
	p := len(pngSignature)
	for p+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[p : p+4]))
		typ := string(data[p+4 : p+8])
		body := p + 8
		if length < 0 || body+length+4 > len(data) {
			return 0, fmt.Errorf("png: truncated %s chunk", typ)
		}
		switch typ {
		case "pHYs":
			if length != 9 {
				return 0, fmt.Errorf("png: pHYs length %d", length)
			}
			ppu := binary.BigEndian.Uint32(data[body : body+4])
			if data[body+8] != 1 {
				return 0, nil
			}
			if ppu == 0 {
				return 0, fmt.Errorf("png: zero pixels per unit")
			}
			return float64(ppu) * 0.0254, nil
		case "IDAT", "IEND":
			// pHYs must precede image data
			return 0, nil
		}
		p = body + length + 4
	}
	return 0, nil
}

// jfifDPI reads the density fields of a JFIF APP0 segment.
func jfifDPI(data []byte) (float64, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, fmt.Errorf("jpeg: missing SOI")
	}
	p := 2
	for p+4 <= len(data) {
		if data[p] != 0xFF {
			return 0, fmt.Errorf("jpeg: bad marker at %d", p)
		}
		marker := data[p+1]
		if marker == 0xDA || marker == 0xD9 {
			return 0, nil
		}
		length := int(binary.BigEndian.Uint16(data[p+2 : p+4]))
		if length < 2 || p+2+length > len(data) {
			return 0, fmt.Errorf("jpeg: truncated segment %#x", marker)
		}
		seg := data[p+4 : p+2+length]
		if marker == 0xE0 && bytes.HasPrefix(seg, []byte("JFIF\x00")) {
			if len(seg) < 12 {
				return 0, fmt.Errorf("jpeg: short JFIF header")
			}
			units := seg[7]
			x := float64(binary.BigEndian.Uint16(seg[8:10]))
			switch units {
			case 1:
				return x, nil
			case 2:
				return x * 2.54, nil
			}
			return 0, nil
		}
		p += 2 + length
	}
	return 0, nil
}

// tiffDPI reads XResolution/YResolution and ResolutionUnit from the first
// IFD.
func tiffDPI(data []byte) (float64, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("tiff: short header")
	}
	var bo binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		bo = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		bo = binary.BigEndian
	default:
		return 0, fmt.Errorf("tiff: bad byte order")
	}

	ifd := int(bo.Uint32(data[4:8]))
	if ifd+2 > len(data) {
		return 0, fmt.Errorf("tiff: IFD offset out of range")
	}
	n := int(bo.Uint16(data[ifd : ifd+2]))
	if ifd+2+n*12 > len(data) {
		return 0, fmt.Errorf("tiff: truncated IFD")
	}

	rational := func(off uint32) (float64, error) {
		o := int(off)
		if o+8 > len(data) {
			return 0, fmt.Errorf("tiff: rational out of range")
		}
		num, den := bo.Uint32(data[o:o+4]), bo.Uint32(data[o+4:o+8])
		if den == 0 {
			return 0, fmt.Errorf("tiff: zero denominator")
		}
		return float64(num) / float64(den), nil
	}

	var xRes, yRes float64
	unit := uint16(2)
	for i := 0; i < n; i++ {
		e := data[ifd+2+i*12 : ifd+2+(i+1)*12]
		tag, typ := bo.Uint16(e[0:2]), bo.Uint16(e[2:4])
		var err error
		switch tag {
		case 282:
			if typ == 5 {
				xRes, err = rational(bo.Uint32(e[8:12]))
			}
		case 283:
			if typ == 5 {
				yRes, err = rational(bo.Uint32(e[8:12]))
			}
		case 296:
			if typ == 3 {
				unit = bo.Uint16(e[8:10])
			}
		}
		if err != nil {
			return 0, err
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	switch unit {
	case 1:
		// no absolute unit
		return 0, nil
	case 3:
		dpi *= 2.54
	}
	return dpi, nil
}
