package audio

// Downmix collapses a two-dimensional sample matrix to mono by averaging.
//
// The layout is inferred from shape: with at most two rows the matrix is
// read as [channel][sample], otherwise as [sample][channel]. Both layouts of
// the same audio produce the same mono signal whenever the clip is longer
// than two samples.
//
// Decode does not need the heuristic: its decoders always emit [channel][sample]
// and are mixed with the same averaging directly, which also covers files with
// more than two channels. Downmix is the entry point for matrices of unknown
// layout.
func Downmix(frames [][]float32) []float32 {
	if len(frames) == 0 {
		return nil
	}
	if len(frames) <= 2 {
		return averageChannels(frames)
	}

	out := make([]float32, len(frames))
	for i, frame := range frames {
		if len(frame) == 0 {
			continue
		}
		var acc float32
		for _, v := range frame {
			acc += v
		}
		out[i] = acc / float32(len(frame))
	}
	return out
}

// averageChannels mixes a channel-major matrix of any channel count
func averageChannels(channels [][]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	for _, ch := range channels[1:] {
		n = min(n, len(ch))
	}

	out := make([]float32, n)
	if len(channels) == 1 {
		copy(out, channels[0][:n])
		return out
	}

	inv := 1 / float32(len(channels))
	for i := range n {
		var acc float32
		for _, ch := range channels {
			acc += ch[i]
		}
		out[i] = acc * inv
	}
	return out
}
