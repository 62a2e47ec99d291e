package watchlist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts an id list to and from its stored form.
type Codec interface {
	Name() string
	Encode(ids []string) ([]byte, error)
	Decode(payload []byte) ([]string, error)
}

// JSONCodec stores a plain JSON array such as ["bitcoin","ethereum"], the same
// payload a browser keeps in localStorage.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func (JSONCodec) Decode(payload []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MsgpackCodec stores the list as a msgpack array.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return msgpack.Marshal(ids)
}

func (MsgpackCodec) Decode(payload []byte) ([]string, error) {
	var ids []string
	if err := msgpack.Unmarshal(payload, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// CodecByName resolves "json" (also the default for an empty name) or "msgpack".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("watchlist: unsupported codec %q", name)
	}
}
