package format

import (
	"encoding/binary"
	"math"
)

// Fixed value counts per service record. Configurable records carry their own
// length prefix instead.
const (
	PreviewLength = 14
	SensorLength  = 9
	RawLength     = 9
)

// layout describes one service's record shape on the wire: the per-value
// width in bytes and a fixed value count, where 0 means "variable,
// length-prefixed".
type layout struct {
	valueSize  int
	fixedCount int
}

var (
	configurableLayout = layout{valueSize: 4}
	previewLayout      = layout{valueSize: 4, fixedCount: PreviewLength}
	sensorLayout       = layout{valueSize: 4, fixedCount: SensorLength}
	rawLayout          = layout{valueSize: 2, fixedCount: RawLength}
)

// record is one decoded id + raw little-endian value bytes, before the
// per-service value conversion.
type record struct {
	key     uint32
	payload []byte
	count   int
}

// splitRecords walks the payload and slices out one record per device. The
// whole message is rejected (nil, false) if the cursor ever runs short or
// does not land exactly on the end of the input.
func splitRecords(data []byte, lay layout) ([]record, bool) {
	var list []record

	offset := 0
	for offset < len(data) {
		if len(data)-offset < 4 {
			return nil, false
		}
		key := binary.LittleEndian.Uint32(data[offset : offset+4])
		offset += 4

		count := lay.fixedCount
		if count == 0 {
			if len(data)-offset < 4 {
				return nil, false
			}
			count = int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
		}

		// A zero-length record is a valid "no sample for this id"
		// marker on the Configurable service.
		if count == 0 {
			continue
		}

		numBytes := count * lay.valueSize
		if len(data)-offset < numBytes {
			return nil, false
		}
		list = append(list, record{
			key:     key,
			payload: data[offset : offset+numBytes],
			count:   count,
		})
		offset += numBytes
	}

	return list, true
}

func decodeFloats(payload []byte, count int) []float32 {
	values := make([]float32, count)
	for i := range values {
		bits := binary.LittleEndian.Uint32(payload[i*4 : i*4+4])
		values[i] = math.Float32frombits(bits)
	}
	return values
}

func decodeShorts(payload []byte, count int) []int16 {
	values := make([]int16, count)
	for i := range values {
		values[i] = int16(binary.LittleEndian.Uint16(payload[i*2 : i*2+2]))
	}
	return values
}

// Configurable decodes a Configurable service message into a keyed element
// collection. Duplicate ids or a malformed payload yield an empty map.
func Configurable(data []byte) map[uint32]ConfigurableElement {
	list := ConfigurableList(data)
	out := make(map[uint32]ConfigurableElement, len(list))
	for _, elem := range list {
		if _, ok := out[elem.Key()]; ok {
			return map[uint32]ConfigurableElement{}
		}
		out[elem.Key()] = elem
	}
	return out
}

// ConfigurableList decodes a Configurable service message into elements in
// wire order. A malformed payload yields an empty list.
func ConfigurableList(data []byte) []ConfigurableElement {
	records, ok := splitRecords(data, configurableLayout)
	if !ok {
		return nil
	}
	list := make([]ConfigurableElement, 0, len(records))
	for _, rec := range records {
		list = append(list, ConfigurableElement{
			element: element[float32]{key: rec.key, values: decodeFloats(rec.payload, rec.count)},
		})
	}
	return list
}

// Preview decodes a Preview service message into a keyed element collection.
func Preview(data []byte) map[uint32]PreviewElement {
	list := PreviewList(data)
	out := make(map[uint32]PreviewElement, len(list))
	for _, elem := range list {
		if _, ok := out[elem.Key()]; ok {
			return map[uint32]PreviewElement{}
		}
		out[elem.Key()] = elem
	}
	return out
}

// PreviewList decodes a Preview service message into elements in wire order.
func PreviewList(data []byte) []PreviewElement {
	records, ok := splitRecords(data, previewLayout)
	if !ok {
		return nil
	}
	list := make([]PreviewElement, 0, len(records))
	for _, rec := range records {
		list = append(list, PreviewElement{
			element: element[float32]{key: rec.key, values: decodeFloats(rec.payload, rec.count)},
		})
	}
	return list
}

// Sensor decodes a Sensor service message into a keyed element collection.
func Sensor(data []byte) map[uint32]SensorElement {
	list := SensorList(data)
	out := make(map[uint32]SensorElement, len(list))
	for _, elem := range list {
		if _, ok := out[elem.Key()]; ok {
			return map[uint32]SensorElement{}
		}
		out[elem.Key()] = elem
	}
	return out
}

// SensorList decodes a Sensor service message into elements in wire order.
func SensorList(data []byte) []SensorElement {
	records, ok := splitRecords(data, sensorLayout)
	if !ok {
		return nil
	}
	list := make([]SensorElement, 0, len(records))
	for _, rec := range records {
		list = append(list, SensorElement{
			element: element[float32]{key: rec.key, values: decodeFloats(rec.payload, rec.count)},
		})
	}
	return list
}

// Raw decodes a Raw service message into a keyed element collection.
func Raw(data []byte) map[uint32]RawElement {
	list := RawList(data)
	out := make(map[uint32]RawElement, len(list))
	for _, elem := range list {
		if _, ok := out[elem.Key()]; ok {
			return map[uint32]RawElement{}
		}
		out[elem.Key()] = elem
	}
	return out
}

// RawList decodes a Raw service message into elements in wire order.
func RawList(data []byte) []RawElement {
	records, ok := splitRecords(data, rawLayout)
	if !ok {
		return nil
	}
	list := make([]RawElement, 0, len(records))
	for _, rec := range records {
		list = append(list, RawElement{
			element: element[int16]{key: rec.key, values: decodeShorts(rec.payload, rec.count)},
		})
	}
	return list
}
