package signal

import "math"

// powerSpectrum computes the power spectral density of a window via a direct
// discrete Fourier transform. Windows are short (8 samples by default) so the
// O(n²) transform is exact and cheap.
func powerSpectrum(xs []float64) []float64 {
	n := len(xs)
	psd := make([]float64, n)
	for k := 0; k < n; k++ {
		re, im := 0.0, 0.0
		for t, v := range xs {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += v * math.Cos(angle)
			im += v * math.Sin(angle)
		}
		psd[k] = re*re + im*im
	}
	return psd
}

// spectralFeatures computes frequency-domain features for one channel window:
// total energy over all bins, spectral centroid, fixed band energies, and
// distribution statistics of the positive-frequency half of the spectrum.
func spectralFeatures(xs []float64, samplingRate float64) map[string]float64 {
	psd := powerSpectrum(xs)
	n := len(psd)

	out := map[string]float64{}

	total := 0.0
	for _, p := range psd {
		total += p
	}
	out["total_energy"] = total

	// positive-frequency half only
	half := n / 2
	posPSD := psd[:half]
	posFreqs := make([]float64, half)
	for k := 0; k < half; k++ {
		posFreqs[k] = float64(k) * samplingRate / float64(n)
	}

	posTotal := 0.0
	weighted := 0.0
	for k, p := range posPSD {
		posTotal += p
		weighted += posFreqs[k] * p
	}
	if posTotal > 0 {
		out["mean_frequency"] = weighted / posTotal
	} else {
		out["mean_frequency"] = 0
	}
	out["spectral_centroid"] = out["mean_frequency"]

	band1, band2, band3 := 0.0, 0.0, 0.0
	for k, p := range posPSD {
		f := posFreqs[k]
		switch {
		case f < 0.5:
			band1 += p
		case f < 1.0:
			band2 += p
		case f < 2.0:
			band3 += p
		}
	}
	out["energy_band_0_0.5"] = band1
	out["energy_band_0.5_1"] = band2
	out["energy_band_1_2"] = band3

	out["spectral_variance"] = variance(posPSD)
	out["spectral_skewness"] = skewness(posPSD)
	out["spectral_kurtosis"] = kurtosis(posPSD)

	return out
}
