package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 32

var (
	iconOnce  sync.Once
	iconBytes []byte
)

// icon returns a keycap drawn at startup, wrapped as a single-entry ICO with
// a PNG payload. Windows needs ICO; the other platforms accept it as well.
func icon() []byte {
	iconOnce.Do(func() {
		iconBytes = encodeICO(keycap())
	})
	return iconBytes
}

func keycap() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	edge := color.RGBA{0x30, 0x36, 0x45, 0xff}
	face := color.RGBA{0xe8, 0xea, 0xf0, 0xff}
	mark := color.RGBA{0xe0, 0x4f, 0x5f, 0xff}
	for y := 2; y < iconSize-2; y++ {
		for x := 2; x < iconSize-2; x++ {
			c := face
			if x < 4 || y < 4 || x >= iconSize-4 || y >= iconSize-4 {
				c = edge
			}
			img.SetRGBA(x, y, c)
		}
	}
	// frame marker in the middle of the cap
	for y := 11; y < 21; y++ {
		for x := 11; x < 21; x++ {
			img.SetRGBA(x, y, mark)
		}
	}
	return img
}

func encodeICO(img image.Image) []byte {
	var payload bytes.Buffer
	png.Encode(&payload, img)

	var buf bytes.Buffer
	// ICONDIR
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	size := img.Bounds().Dx()
	buf.Write([]byte{byte(size), byte(size), 0, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32)) // bpp
	binary.Write(&buf, binary.LittleEndian, uint32(payload.Len()))
	binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(payload.Bytes())
	return buf.Bytes()
}
