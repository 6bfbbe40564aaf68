package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc721ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]}
]`

var erc721ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc721ABIJSON))
	if err != nil {
		panic(err)
	}
	erc721ABI = parsed
}

// ContractCaller is the subset of ethclient.Client used for view calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg gethcore.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// NFTReader answers ownership and metadata questions against a hat
// ERC-721 contract.
type NFTReader struct {
	caller   ContractCaller
	contract common.Address
}

func NewNFTReader(caller ContractCaller, contract common.Address) *NFTReader {
	return &NFTReader{caller: caller, contract: contract}
}

// Dial connects to the given JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum node: %w", err)
	}
	return client, nil
}

// OwnsToken reports whether the address holds at least one token.
func (r *NFTReader) OwnsToken(ctx context.Context, owner common.Address) (bool, error) {
	input, err := erc721ABI.Pack("balanceOf", owner)
	if err != nil {
		return false, fmt.Errorf("pack balanceOf: %w", err)
	}
	output, err := r.caller.CallContract(ctx, gethcore.CallMsg{To: &r.contract, Data: input}, nil)
	if err != nil {
		return false, fmt.Errorf("call balanceOf: %w", err)
	}
	values, err := erc721ABI.Unpack("balanceOf", output)
	if err != nil {
		return false, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return false, fmt.Errorf("unpack balanceOf: unexpected type %T", values[0])
	}
	return balance.Sign() > 0, nil
}

// HatURI fetches the token URI of the hat mapped to the wearer address.
// The token ID is the address itself, interpreted as a big-endian
// integer, matching how the hats contract assigns IDs.
func (r *NFTReader) HatURI(ctx context.Context, wearer common.Address) (string, error) {
	tokenID := new(big.Int).SetBytes(wearer.Bytes())
	return r.TokenURI(ctx, tokenID)
}

// TokenURI fetches the metadata URI for an explicit token ID.
func (r *NFTReader) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	input, err := erc721ABI.Pack("tokenURI", tokenID)
	if err != nil {
		return "", fmt.Errorf("pack tokenURI: %w", err)
	}
	output, err := r.caller.CallContract(ctx, gethcore.CallMsg{To: &r.contract, Data: input}, nil)
	if err != nil {
		return "", fmt.Errorf("call tokenURI: %w", err)
	}
	values, err := erc721ABI.Unpack("tokenURI", output)
	if err != nil {
		return "", fmt.Errorf("unpack tokenURI: %w", err)
	}
	uri, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unpack tokenURI: unexpected type %T", values[0])
	}
	return uri, nil
}
