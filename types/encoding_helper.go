package types

import (
	gogotypes "github.com/gogo/protobuf/types"

	"github.com/tendermint/lightcore/libs/bytes"
)

// cdcEncode returns nil if the input is nil, otherwise returns
// proto.Marshal(<type>Value{Value: item})
func cdcEncode(item interface{}) []byte {
	if item == nil {
		return nil
	}

	var (
		bz  []byte
		err error
	)
	switch item := item.(type) {
	case string:
		i := gogotypes.StringValue{
			Value: item,
		}
		bz, err = i.Marshal()
	case int64:
		i := gogotypes.Int64Value{
			Value: item,
		}
		bz, err = i.Marshal()
	case bytes.HexBytes:
		i := gogotypes.BytesValue{
			Value: item,
		}
		bz, err = i.Marshal()
	case []byte:
		i := gogotypes.BytesValue{
			Value: item,
		}
		bz, err = i.Marshal()
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return bz
}
