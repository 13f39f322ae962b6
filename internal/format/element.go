package format

// element carries one device's decoded value array. The named accessors on
// the service views map channel sub-ranges onto it.
type element[T float32 | int16] struct {
	key    uint32
	values []T
}

// Key returns the integer device id this element was keyed by on the wire.
func (e element[T]) Key() uint32 { return e.key }

// Values returns the packed channel data backing this element.
func (e element[T]) Values() []T { return e.values }

// rangeOf copies out length values starting at base. A request past the end
// of the available data returns exactly length zero values; the service
// omits channels it is not producing and callers read zeros instead of
// special-casing every accessor.
func (e element[T]) rangeOf(base, length int) []T {
	out := make([]T, length)
	if base < 0 || length < 0 || base+length > len(e.values) {
		return out
	}
	copy(out, e.values[base:base+length])
	return out
}

// ConfigurableElement is one device's record from the Configurable service.
// The channel list and ordering are whatever the client requested at
// connection time, so there is no fixed layout.
type ConfigurableElement struct {
	element[float32]
}

// Size returns the number of channel values in this record.
func (e ConfigurableElement) Size() int { return len(e.values) }

// At returns the single channel value at pos.
func (e ConfigurableElement) At(pos int) float32 { return e.values[pos] }

// Range returns length channel values starting at base, zero-filled when the
// request falls outside the record.
func (e ConfigurableElement) Range(base, length int) []float32 {
	return e.rangeOf(base, length)
}

// PreviewElement is one device's record from the Preview service.
//
// Preview element layout, 14 float values per device:
//
//	id => {Gqw, Gqx, Gqy, Gqz, Lqw, Lqx, Lqy, Lqz, rx, ry, rz, ax, ay, az}
type PreviewElement struct {
	element[float32]
}

// Quaternion returns the {w, x, y, z} orientation quaternion, local joint
// frame when local is true, otherwise the global frame.
func (e PreviewElement) Quaternion(local bool) []float32 {
	if local {
		return e.rangeOf(4, 4)
	}
	return e.rangeOf(0, 4)
}

// Euler returns the {x, y, z} Euler angle set in radians, x-y-z rotation
// order, each angle on [-pi, pi].
func (e PreviewElement) Euler() []float32 { return e.rangeOf(8, 3) }

// Accelerate returns the {x, y, z} linear acceleration estimate in g.
func (e PreviewElement) Accelerate() []float32 { return e.rangeOf(11, 3) }

// Matrix returns a 16 element row-major 4x4 rotation matrix computed from
// the local or global quaternion.
func (e PreviewElement) Matrix(local bool) []float32 {
	return QuaternionToMatrix(e.Quaternion(local))
}

// SensorElement is one device's record from the Sensor service, the
// un-filtered sensor signals in real units.
//
//	id => {ax, ay, az, mx, my, mz, gx, gy, gz}
type SensorElement struct {
	element[float32]
}

// Accelerometer returns the {x, y, z} accelerometer signal in g.
func (e SensorElement) Accelerometer() []float32 { return e.rangeOf(0, 3) }

// Magnetometer returns the {x, y, z} magnetometer signal in microtesla.
func (e SensorElement) Magnetometer() []float32 { return e.rangeOf(3, 3) }

// Gyroscope returns the {x, y, z} gyroscope signal in degree/second.
func (e SensorElement) Gyroscope() []float32 { return e.rangeOf(6, 3) }

// RawElement is one device's record from the Raw service, the uncalibrated
// integer sensor outputs. All sensors produce 12-bit codes stored widened to
// 16-bit signed integers.
//
//	id => {ax, ay, az, mx, my, mz, gx, gy, gz}
type RawElement struct {
	element[int16]
}

// Accelerometer returns the {x, y, z} raw accelerometer codes.
func (e RawElement) Accelerometer() []int16 { return e.rangeOf(0, 3) }

// Magnetometer returns the {x, y, z} raw magnetometer codes.
func (e RawElement) Magnetometer() []int16 { return e.rangeOf(3, 3) }

// Gyroscope returns the {x, y, z} raw gyroscope codes.
func (e RawElement) Gyroscope() []int16 { return e.rangeOf(6, 3) }
