package audio

import "encoding/binary"

// Resampler converts a PCM16LE mono stream between sample rates by linear
// interpolation. It is stateful across chunks: the previous edge sample and the
// fractional read position carry over so chunk boundaries stay seamless.
type Resampler struct {
	from int
	to   int

	prev    int16
	primed  bool
	frac    float64
	oddByte []byte
}

func NewResampler(from, to int) *Resampler {
	return &Resampler{from: from, to: to}
}

// Process converts one chunk. The returned slice is freshly allocated; input is
// never retained except for a trailing odd byte awaiting its pair.
func (r *Resampler) Process(chunk []byte) []byte {
	if r.from == r.to {
		out := make([]byte, len(chunk))
		copy(out, chunk)
		return out
	}

	data := chunk
	if len(r.oddByte) > 0 {
		data = append(r.oddByte, chunk...)
		r.oddByte = nil
	}
	if len(data)%2 != 0 {
		r.oddByte = []byte{data[len(data)-1]}
		data = data[:len(data)-1]
	}

	step := float64(r.from) / float64(r.to)
	out := make([]byte, 0, (len(data)*r.to)/r.from+2)

	for i := 0; i+1 < len(data); i += 2 {
		cur := int16(binary.LittleEndian.Uint16(data[i:]))
		if !r.primed {
			r.prev = cur
			r.primed = true
			continue
		}
		for r.frac < 1 {
			v := float64(r.prev) + (float64(cur)-float64(r.prev))*r.frac
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(v)))
			r.frac += step
		}
		r.frac -= 1
		r.prev = cur
	}
	return out
}

// Reset drops all carried state so stale audio from before an interruption can
// never bleed into subsequent output.
func (r *Resampler) Reset() {
	r.prev = 0
	r.primed = false
	r.frac = 0
	r.oddByte = nil
}
