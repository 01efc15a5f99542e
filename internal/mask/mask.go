// Package mask содержит пространственные маски сегментации и бинарную геометрию над ними.
package mask

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// DefaultThreshold порог бинаризации: пиксель считается занятым при значении > 127
const DefaultThreshold uint8 = 127

// Mask одноканальная маска интенсивности размером с кадр (0 - нет объекта, 255 - есть)
type Mask struct {
	Width  int
	Height int
	Pix    []uint8 // построчно, Width*Height элементов
}

// New создает нулевую маску заданного размера
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// FromPix оборачивает готовый буфер пикселей, проверяя его длину
func FromPix(width, height int, pix []uint8) (*Mask, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid mask size %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("mask buffer has %d bytes, want %d for %dx%d", len(pix), width*height, width, height)
	}
	return &Mask{Width: width, Height: height, Pix: pix}, nil
}

// FromImage переводит изображение в маску через оттенки серого
func FromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			m.Pix[y*m.Width+x] = g.Y
		}
	}
	return m
}

// DecodePNG читает маску из PNG
func DecodePNG(r io.Reader) (*Mask, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mask png: %w", err)
	}
	return FromImage(img), nil
}

// EncodePNG записывает маску в PNG (8 бит, оттенки серого)
func EncodePNG(w io.Writer, m *Mask) error {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(img.Pix, m.Pix)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode mask png: %w", err)
	}
	return nil
}

// At возвращает значение пикселя, 0 за пределами маски
func (m *Mask) At(x, y int) uint8 {
	if m == nil || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set записывает значение пикселя, координаты вне маски игнорируются
func (m *Mask) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Fill заполняет прямоугольник r значением v (r обрезается по границам маски)
func (m *Mask) Fill(r image.Rectangle, v uint8) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Pix[y*m.Width+x] = v
		}
	}
}

// Bounds возвращает прямоугольник маски
func (m *Mask) Bounds() image.Rectangle {
	if m == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, m.Width, m.Height)
}
