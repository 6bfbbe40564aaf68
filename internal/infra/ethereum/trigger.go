// Package ethereum decodes on-chain trigger payloads and performs the
// read-only ERC-721 lookups the agent needs.
package ethereum

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// DataWithId is the payload exchanged with the trigger contract: an
// opaque byte blob tagged with the trigger that produced it. The agent
// echoes the same triggerId back so the contract can correlate results.
type DataWithId struct {
	TriggerID uint64
	Data      []byte
}

var (
	dataWithIDArgs   abi.Arguments
	newTriggerArgs   abi.Arguments
	triggerInfoEvent = "NewTrigger"
)

func init() {
	uint64Type, err := abi.NewType("uint64", "", nil)
	if err != nil {
		panic(err)
	}
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	dataWithIDArgs = abi.Arguments{
		{Name: "triggerId", Type: uint64Type},
		{Name: "data", Type: bytesType},
	}
	newTriggerArgs = abi.Arguments{
		{Name: "_triggerInfo", Type: bytesType},
	}
}

// EncodeDataWithID ABI-encodes the payload as the (uint64, bytes) tuple
// the trigger contract expects.
func EncodeDataWithID(d DataWithId) ([]byte, error) {
	encoded, err := dataWithIDArgs.Pack(d.TriggerID, d.Data)
	if err != nil {
		return nil, fmt.Errorf("encode trigger payload: %w", err)
	}
	return encoded, nil
}

// DecodeDataWithID is the inverse of EncodeDataWithID.
func DecodeDataWithID(encoded []byte) (DataWithId, error) {
	values, err := dataWithIDArgs.Unpack(encoded)
	if err != nil {
		return DataWithId{}, fmt.Errorf("decode trigger payload: %w", err)
	}
	triggerID, ok := values[0].(uint64)
	if !ok {
		// uint64 may surface as *big.Int depending on the packer.
		n, bigOK := values[0].(*big.Int)
		if !bigOK {
			return DataWithId{}, fmt.Errorf("decode trigger payload: unexpected triggerId type %T", values[0])
		}
		triggerID = n.Uint64()
	}
	data, ok := values[1].([]byte)
	if !ok {
		return DataWithId{}, fmt.Errorf("decode trigger payload: unexpected data type %T", values[1])
	}
	return DataWithId{TriggerID: triggerID, Data: data}, nil
}

// DecodeNewTriggerEvent unpacks the data section of a NewTrigger log,
// `event NewTrigger(bytes _triggerInfo)`, and returns the inner
// trigger-info bytes (themselves an encoded DataWithId).
func DecodeNewTriggerEvent(logData []byte) ([]byte, error) {
	values, err := newTriggerArgs.Unpack(logData)
	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", triggerInfoEvent, err)
	}
	info, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("decode %s event: unexpected payload type %T", triggerInfoEvent, values[0])
	}
	return info, nil
}
