// Package dsp holds the spectral building blocks shared by the feature
// extractor and the neural detector: padding, windowing, short-time Fourier
// transforms, mel filter banks, decibel scaling, the orthonormal DCT-II and
// the analytic-signal envelope.
//
// Transforms run on gonum's dsp/fourier. Spectrogram matrices are indexed
// [frame][bin] throughout.
package dsp
