package mvt

import "github.com/tilerender/vectormap/pbf"

// decodeValue reads an MVT Value message (a typed union: string, float,
// double, int64, uint64, sint64, or bool) and returns it as an `any`.
func decodeValue(data []byte) (any, error) {
	r := pbf.NewReader(data)
	for {
		tag, wt, ok, err := r.NextField()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		switch tag {
		case 1: // string_value
			return r.ReadString()
		case 2: // float_value
			return r.ReadFloat()
		case 3: // double_value
			return r.ReadDouble()
		case 4: // int_value
			v, err := r.ReadVarint()
			return int64(v), err
		case 5: // uint_value
			return r.ReadVarint()
		case 6: // sint_value
			return r.ReadZigZag()
		case 7: // bool_value
			v, err := r.ReadVarint()
			return v != 0, err
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
}
