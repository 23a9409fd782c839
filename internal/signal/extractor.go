// Package signal turns raw 6-axis IMU trip telemetry into per-window
// feature vectors: time-domain statistics, jerk and magnitude channels, and
// DFT-based spectral features over a sliding window.
package signal

import (
	"math"

	"github.com/ridewise/riskmeter/internal/types"
)

const (
	DefaultWindowSize   = 8
	DefaultOverlapRatio = 0.25
	DefaultSamplingRate = 2.0 // Hz
)

// epsilon guards the magnitude ratio against division by zero.
const epsilon = 1e-8

// Config controls the sliding-window extraction. Zero values fall back to
// the defaults above.
type Config struct {
	WindowSize   int
	OverlapRatio float64
	SamplingRate float64
}

// DefaultConfig returns the extraction parameters used in production:
// 4-second windows at 2 Hz with a 2-sample stride.
func DefaultConfig() Config {
	return Config{
		WindowSize:   DefaultWindowSize,
		OverlapRatio: DefaultOverlapRatio,
		SamplingRate: DefaultSamplingRate,
	}
}

// FeatureVector maps a feature name (channel × statistic) to its value.
// One vector is produced per sliding window.
type FeatureVector map[string]float64

var sensorChannels = []string{"AccX", "AccY", "AccZ", "GyroX", "GyroY", "GyroZ"}

// Channels lists the six raw sensor channels in extraction order.
func Channels() []string {
	return append([]string(nil), sensorChannels...)
}
var accChannels = []string{"AccX", "AccY", "AccZ"}
var jerkChannels = []string{"JerkX", "JerkY", "JerkZ", "Jerk_magnitude"}
var magnitudeChannels = []string{"Acc_magnitude", "Gyro_magnitude", "Total_magnitude", "Magnitude_ratio"}

// Extractor converts a trip's sensor samples into feature vectors. It holds
// no per-trip state: extraction is a pure function of its input.
type Extractor struct {
	cfg Config
}

// NewExtractor creates an extractor, filling unset config fields with
// defaults.
func NewExtractor(cfg Config) *Extractor {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.OverlapRatio <= 0 {
		cfg.OverlapRatio = DefaultOverlapRatio
	}
	if cfg.SamplingRate <= 0 {
		cfg.SamplingRate = DefaultSamplingRate
	}
	return &Extractor{cfg: cfg}
}

// Stride is the number of samples the window advances between feature rows.
func (e *Extractor) Stride() int {
	stride := int(math.Round(float64(e.cfg.WindowSize) * e.cfg.OverlapRatio))
	if stride < 1 {
		stride = 1
	}
	return stride
}

// Extract runs the full pipeline: normalize, smooth, derive jerk and
// magnitude channels, slide windows, and compute time- and frequency-domain
// features per window. Trips shorter than one window produce zero vectors;
// the caller handles that case.
func (e *Extractor) Extract(samples []types.SensorSample) []FeatureVector {
	if len(samples) < e.cfg.WindowSize {
		return []FeatureVector{}
	}

	tr := newTrace(samples)
	tr.normalize()
	tr.smooth(e.cfg.WindowSize)
	tr.deriveJerk(e.timeDeltas(samples))
	tr.deriveMagnitudes()

	w := e.cfg.WindowSize
	stride := e.Stride()

	vectors := make([]FeatureVector, 0, (tr.n-w)/stride+1)
	for start := 0; start+w <= tr.n; start += stride {
		fv := FeatureVector{}
		e.windowTimeFeatures(fv, tr, start, w)
		e.windowSpectralFeatures(fv, tr, start, w)
		vectors = append(vectors, fv)
	}

	repairNonFinite(vectors)
	return vectors
}

// timeDeltas returns the elapsed seconds between consecutive samples,
// falling back to the nominal sampling interval when timestamps are absent
// or out of order. The first delta is the fallback.
func (e *Extractor) timeDeltas(samples []types.SensorSample) []float64 {
	fallback := 1.0 / e.cfg.SamplingRate
	dts := make([]float64, len(samples))
	for i := range samples {
		if i == 0 {
			dts[i] = fallback
			continue
		}
		dt := samples[i].Timestamp.Sub(samples[i-1].Timestamp).Seconds()
		if dt <= 0 {
			dt = fallback
		}
		dts[i] = dt
	}
	return dts
}

// trace holds the per-channel series for one trip while it moves through
// the pipeline stages.
type trace struct {
	n        int
	channels map[string][]float64
}

func newTrace(samples []types.SensorSample) *trace {
	tr := &trace{n: len(samples), channels: map[string][]float64{}}
	for _, name := range sensorChannels {
		tr.channels[name] = make([]float64, len(samples))
	}
	for i, s := range samples {
		tr.channels["AccX"][i] = s.AccX
		tr.channels["AccY"][i] = s.AccY
		tr.channels["AccZ"][i] = s.AccZ
		tr.channels["GyroX"][i] = s.GyroX
		tr.channels["GyroY"][i] = s.GyroY
		tr.channels["GyroZ"][i] = s.GyroZ
	}
	return tr
}

// normalize min-max scales each sensor channel over the full trip. Constant
// channels collapse to zero. Scaling never leaks across trips; the trace is
// discarded after extraction.
func (tr *trace) normalize() {
	for _, name := range sensorChannels {
		xs := tr.channels[name]
		lo, hi := minMax(xs)
		if hi == lo {
			for i := range xs {
				xs[i] = 0
			}
			continue
		}
		for i := range xs {
			xs[i] = (xs[i] - lo) / (hi - lo)
		}
	}
}

// smooth applies a centered moving average per sensor channel, filling edge
// gaps by nearest-value propagation so no channel carries missing values
// into later stages.
func (tr *trace) smooth(window int) {
	for _, name := range sensorChannels {
		xs := tr.channels[name]
		smoothed := make([]float64, len(xs))
		for i := range xs {
			lo := i - window/2
			hi := i + (window - 1) - window/2
			if lo < 0 || hi >= len(xs) {
				smoothed[i] = math.NaN()
				continue
			}
			smoothed[i] = mean(xs[lo : hi+1])
		}
		fillEdges(smoothed)
		tr.channels[name] = smoothed
	}
}

// deriveJerk computes the discrete time derivative of each acceleration
// axis plus the jerk magnitude channel.
func (tr *trace) deriveJerk(dts []float64) {
	for _, axis := range accChannels {
		acc := tr.channels[axis]
		jerk := make([]float64, tr.n)
		for i := 1; i < tr.n; i++ {
			jerk[i] = (acc[i] - acc[i-1]) / dts[i]
		}
		tr.channels["Jerk"+axis[len(axis)-1:]] = jerk
	}
	jx, jy, jz := tr.channels["JerkX"], tr.channels["JerkY"], tr.channels["JerkZ"]
	jm := make([]float64, tr.n)
	for i := 0; i < tr.n; i++ {
		jm[i] = math.Sqrt(jx[i]*jx[i] + jy[i]*jy[i] + jz[i]*jz[i])
	}
	tr.channels["Jerk_magnitude"] = jm
}

// deriveMagnitudes computes acceleration/gyro magnitudes, their sum, and
// their ratio.
func (tr *trace) deriveMagnitudes() {
	ax, ay, az := tr.channels["AccX"], tr.channels["AccY"], tr.channels["AccZ"]
	gx, gy, gz := tr.channels["GyroX"], tr.channels["GyroY"], tr.channels["GyroZ"]

	accMag := make([]float64, tr.n)
	gyroMag := make([]float64, tr.n)
	totalMag := make([]float64, tr.n)
	ratio := make([]float64, tr.n)
	for i := 0; i < tr.n; i++ {
		accMag[i] = math.Sqrt(ax[i]*ax[i] + ay[i]*ay[i] + az[i]*az[i])
		gyroMag[i] = math.Sqrt(gx[i]*gx[i] + gy[i]*gy[i] + gz[i]*gz[i])
		totalMag[i] = accMag[i] + gyroMag[i]
		ratio[i] = accMag[i] / (gyroMag[i] + epsilon)
	}
	tr.channels["Acc_magnitude"] = accMag
	tr.channels["Gyro_magnitude"] = gyroMag
	tr.channels["Total_magnitude"] = totalMag
	tr.channels["Magnitude_ratio"] = ratio
}

func (e *Extractor) windowTimeFeatures(fv FeatureVector, tr *trace, start, w int) {
	for _, name := range sensorChannels {
		xs := tr.channels[name][start : start+w]
		lo, hi := minMax(xs)
		fv[name+"_mean"] = mean(xs)
		fv[name+"_std"] = stddev(xs)
		fv[name+"_min"] = lo
		fv[name+"_max"] = hi
		fv[name+"_median"] = median(xs)
		fv[name+"_range"] = hi - lo
		fv[name+"_rms"] = rms(xs)
		fv[name+"_var"] = variance(xs)
		fv[name+"_skew"] = skewness(xs)
		fv[name+"_kurtosis"] = kurtosis(xs)
	}
	for _, name := range jerkChannels {
		xs := tr.channels[name][start : start+w]
		_, hi := minMax(xs)
		fv[name+"_mean"] = mean(xs)
		fv[name+"_std"] = stddev(xs)
		fv[name+"_max"] = hi
		fv[name+"_rms"] = rms(xs)
	}
	for _, name := range magnitudeChannels {
		xs := tr.channels[name][start : start+w]
		lo, hi := minMax(xs)
		fv[name+"_mean"] = mean(xs)
		fv[name+"_std"] = stddev(xs)
		fv[name+"_max"] = hi
		fv[name+"_min"] = lo
		fv[name+"_range"] = hi - lo
	}
}

func (e *Extractor) windowSpectralFeatures(fv FeatureVector, tr *trace, start, w int) {
	for _, name := range sensorChannels {
		xs := tr.channels[name][start : start+w]
		for suffix, value := range spectralFeatures(xs, e.cfg.SamplingRate) {
			fv[name+"_"+suffix] = value
		}
	}
}

// repairNonFinite zeroes NaN feature values, then replaces infinities with
// the column median across windows so one degenerate window cannot poison a
// feature column.
func repairNonFinite(vectors []FeatureVector) {
	if len(vectors) == 0 {
		return
	}
	for _, fv := range vectors {
		for k, v := range fv {
			if math.IsNaN(v) {
				fv[k] = 0
			}
		}
	}
	for key := range vectors[0] {
		finite := make([]float64, 0, len(vectors))
		anyInf := false
		for _, fv := range vectors {
			if math.IsInf(fv[key], 0) {
				anyInf = true
			} else {
				finite = append(finite, fv[key])
			}
		}
		if !anyInf {
			continue
		}
		med := median(finite)
		for _, fv := range vectors {
			if math.IsInf(fv[key], 0) {
				fv[key] = med
			}
		}
	}
}
