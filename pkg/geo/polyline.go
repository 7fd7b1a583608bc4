package geo

import "math"

// PrecisionDefault is the Google/OpenRouteService polyline precision (1e5).
const PrecisionDefault = 5

// DecodePolyline decodes an encoded polyline string into coordinates.
// Malformed trailing input is ignored rather than producing a partial point.
func DecodePolyline(encoded string, precision int) []Coordinate {
	if encoded == "" {
		return nil
	}

	factor := math.Pow10(precision)

	var coords []Coordinate
	index := 0
	lat := 0
	lon := 0

	for index < len(encoded) {
		latDelta, next, ok := decodeValue(encoded, index)
		if !ok {
			break
		}
		lonDelta, next, ok := decodeValue(encoded, next)
		if !ok {
			break
		}
		index = next

		lat += latDelta
		lon += lonDelta

		coords = append(coords, Coordinate{
			Lat: float64(lat) / factor,
			Lon: float64(lon) / factor,
		})
	}

	return coords
}

// decodeValue reads one zig-zag encoded delta starting at index.
func decodeValue(encoded string, index int) (int, int, bool) {
	shift := 0
	result := 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), index, true
			}
			return result >> 1, index, true
		}
	}

	return 0, index, false
}

// EncodePolyline encodes coordinates with the given precision.
func EncodePolyline(coords []Coordinate, precision int) string {
	if len(coords) == 0 {
		return ""
	}

	factor := math.Pow10(precision)
	encoded := make([]byte, 0, len(coords)*4)
	prevLat := 0
	prevLon := 0

	for _, c := range coords {
		lat := int(math.Round(c.Lat * factor))
		lon := int(math.Round(c.Lon * factor))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
