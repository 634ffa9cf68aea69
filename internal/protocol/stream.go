package protocol

import (
	"errors"
	"fmt"
	"io"
	"math"

	"islebound.gg/internal/sim/geom"
)

// ErrTruncated marks a record cut off mid-field. Unlike a clean io.EOF
// between records it is fatal to the connection that produced it.
var ErrTruncated = errors.New("protocol: truncated record")

// Reader decodes little-endian fields from a byte stream. The first failed
// read sticks: every later call returns the zero value until Err is checked.
// The codec never closes the underlying stream; the owning connection
// decides what to do with a poisoned reader.
type Reader struct {
	r       io.Reader
	err     error
	scratch [8]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// read fills scratch[:n]. Any shortfall, including EOF, poisons the reader
// with ErrTruncated: field reads are only issued once a record's tag has
// committed us to a full record.
func (r *Reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	if _, err := io.ReadFull(r.r, r.scratch[:n]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrTruncated
		}
		r.fail(err)
		return nil
	}
	return r.scratch[:n]
}

func (r *Reader) U8() uint8 {
	b := r.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.read(2)
	if b == nil {
		return 0
	}
	return uint16(b[0]) | uint16(b[1])<<8
}

func (r *Reader) U32() uint32 {
	b := r.read(4)
	if b == nil {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (r *Reader) U64() uint64 {
	lo := uint64(r.U32())
	hi := uint64(r.U32())
	return lo | hi<<32
}

func (r *Reader) I8() int8   { return int8(r.U8()) }
func (r *Reader) I16() int16 { return int16(r.U16()) }
func (r *Reader) I32() int32 { return int32(r.U32()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

func (r *Reader) Bool() bool { return r.U8() != 0 }

// Str reads a u16 length prefix followed by that many bytes.
func (r *Reader) Str() string {
	n := int(r.U16())
	if r.err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrTruncated
		}
		r.fail(err)
		return ""
	}
	return string(buf)
}

func (r *Reader) Vec() geom.Vector3 {
	return geom.Vector3{X: r.F32(), Y: r.F32(), Z: r.F32()}
}

// Vec16 reads the quantized vector encoding: one int16 per component, one
// world unit of resolution. Used for velocities, where bandwidth beats
// fidelity.
func (r *Reader) Vec16() geom.Vector3 {
	return geom.Vector3{
		X: float32(r.I16()),
		Y: float32(r.I16()),
		Z: float32(r.I16()),
	}
}

// Rot reads the quantized rotation: u16 per component over [0,360).
func (r *Reader) Rot() geom.Rotation {
	return geom.Rotation{
		Pitch: degFromU16(r.U16()),
		Yaw:   degFromU16(r.U16()),
		Roll:  degFromU16(r.U16()),
	}
}

// PrecRot reads the full-precision rotation used by rare authoritative
// events (teleport, respawn).
func (r *Reader) PrecRot() geom.Rotation {
	return geom.Rotation{Pitch: r.F32(), Yaw: r.F32(), Roll: r.F32()}
}

// Frac reads a signed fraction in [-1,1] quantized to a single byte.
func (r *Reader) Frac() float32 {
	return float32(r.I8()) / 127
}

func degFromU16(v uint16) float32 {
	return float32(v) * 360 / 65536
}

// Writer accumulates little-endian fields into an in-memory buffer.
// Building a batch is decoupled from flushing it: the same buffer can be
// flushed to a live connection, merged into another in-progress batch, or
// handed off for replay.
type Writer struct {
	buf []byte
}

func (w *Writer) Len() int      { return len(w.buf) }
func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Reset()        { w.buf = w.buf[:0] }

// Take hands off the accumulated bytes and leaves the writer empty.
func (w *Writer) Take() []byte {
	b := w.buf
	w.buf = nil
	return b
}

// Merge appends o's pending bytes onto w and clears o. Event batching:
// per-player buffers merge into the connection buffer at flush time.
func (w *Writer) Merge(o *Writer) {
	if o == nil || len(o.buf) == 0 {
		return
	}
	w.buf = append(w.buf, o.buf...)
	o.Reset()
}

// Flush writes the full buffer to dst and clears it on success. On error
// the buffer is preserved so the caller can retry or tear down.
func (w *Writer) Flush(dst io.Writer) error {
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := dst.Write(w.buf); err != nil {
		return fmt.Errorf("protocol: flush: %w", err)
	}
	w.Reset()
	return nil
}

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

func (w *Writer) U32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (w *Writer) U64(v uint64) {
	w.U32(uint32(v))
	w.U32(uint32(v >> 32))
}

func (w *Writer) I8(v int8)   { w.U8(uint8(v)) }
func (w *Writer) I16(v int16) { w.U16(uint16(v)) }
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// Str writes a u16 length prefix followed by the bytes. Longer strings are
// truncated at the u16 boundary; no event carries text anywhere near it.
func (w *Writer) Str(s string) {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	w.U16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) Vec(v geom.Vector3) {
	w.F32(v.X)
	w.F32(v.Y)
	w.F32(v.Z)
}

func (w *Writer) Vec16(v geom.Vector3) {
	w.Sat16(v.X)
	w.Sat16(v.Y)
	w.Sat16(v.Z)
}

// Sat16 writes a float rounded and saturated to a symmetric int16 range.
func (w *Writer) Sat16(v float32) {
	r := math.Round(float64(v))
	if r > 32767 {
		r = 32767
	} else if r < -32767 {
		r = -32767
	}
	w.I16(int16(r))
}

func (w *Writer) Rot(r geom.Rotation) {
	n := r.Normalized()
	w.U16(degToU16(n.Pitch))
	w.U16(degToU16(n.Yaw))
	w.U16(degToU16(n.Roll))
}

func (w *Writer) PrecRot(r geom.Rotation) {
	w.F32(r.Pitch)
	w.F32(r.Yaw)
	w.F32(r.Roll)
}

func (w *Writer) Frac(v float32) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	w.I8(int8(math.Round(float64(v) * 127)))
}

func degToU16(deg float32) uint16 {
	return uint16(int(math.Round(float64(deg)/360*65536)) & 0xFFFF)
}
