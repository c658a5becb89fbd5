package lode

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/ftclient/types"
)

// ManifestName is the file name of the session manifest.
const ManifestName = "manifest.msgpack"

// EncodeManifest encodes a transfer record as msgpack.
func EncodeManifest(record *types.TransferRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("encode manifest: nil record")
	}
	data, err := msgpack.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest decodes a msgpack transfer record.
func DecodeManifest(data []byte) (*types.TransferRecord, error) {
	var record types.TransferRecord
	if err := msgpack.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &record, nil
}
