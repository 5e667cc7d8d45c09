package craft

import (
	"encoding/hex"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

type ethernetFields struct {
	Src       net.HardwareAddr `mapstructure:"src"`
	Dst       net.HardwareAddr `mapstructure:"dst"`
	EtherType uint16           `mapstructure:"ether_type"`
}

type ipv4Fields struct {
	Src      net.IP   `mapstructure:"src"`
	Dst      net.IP   `mapstructure:"dst"`
	TTL      uint8    `mapstructure:"ttl"`
	TOS      uint8    `mapstructure:"tos"`
	ID       uint16   `mapstructure:"id"`
	DontFrag bool     `mapstructure:"dont_fragment"`
	Protocol uint8    `mapstructure:"protocol"`
	Options  []hexStr `mapstructure:"options"`
}

type udpFields struct {
	SrcPort uint16 `mapstructure:"src_port"`
	DstPort uint16 `mapstructure:"dst_port"`
}

type payloadFields struct {
	Text     string `mapstructure:"text"`
	Hex      hexStr `mapstructure:"hex"`
	Size     int    `mapstructure:"size"`
	Protocol string `mapstructure:"protocol"`
}

// hexStr is a byte string written as hex digits, optionally separated by
// spaces or colons.
type hexStr []byte

var (
	macType = reflect.TypeOf(net.HardwareAddr{})
	hexType = reflect.TypeOf(hexStr{})
)

func stringToMACHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != macType {
		return data, nil
	}
	return net.ParseMAC(data.(string))
}

func stringToHexHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != hexType {
		return data, nil
	}
	s := strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(data.(string))
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", data, err)
	}
	return hexStr(b), nil
}

// decodeFields decodes a recipe layer's fields into out. Unknown keys are
// rejected so that typos surface.
func decodeFields(fields map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToMACHook,
			stringToHexHook,
			mapstructure.StringToIPHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}
