package common

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidCalldata = errors.New("invalid calldata")
	ErrNotWithdraw     = errors.New("not a withdrawal")

	withdrawSig = crypto.Keccak256([]byte("withdraw(address,uint256)"))[:4]
)

// PackWithdraw encodes a vault withdrawal as calldata: the 4-byte function
// selector followed by the ABI-encoded recipient and amount.
func PackWithdraw(recipient common.Address, amount *big.Int) []byte {
	calldata := make([]byte, 4+32+32)
	copy(calldata[:4], withdrawSig)

	// addresses occupy the low 20 bytes of a 32-byte word
	copy(calldata[4+12:4+32], recipient.Bytes())

	amount.FillBytes(calldata[4+32 : 4+64])

	return calldata
}

// ParseWithdraw decodes the calldata of a vault withdrawal. It is the exact
// inverse of PackWithdraw so a withdrawal round-trips unchanged through the
// executor's generic call forwarding.
func ParseWithdraw(calldata []byte) (common.Address, *big.Int, error) {
	if len(calldata) != 4+64 {
		return common.Address{}, nil, ErrInvalidCalldata
	}

	funcSelector := calldata[:4]
	if !bytes.Equal(funcSelector, withdrawSig) {
		return common.Address{}, nil, ErrNotWithdraw
	}

	args := calldata[4:]

	// the recipient is the low 20 bytes of the first 32-byte word
	if !bytes.Equal(args[:12], make([]byte, 12)) {
		return common.Address{}, nil, ErrInvalidCalldata
	}
	recipient := common.BytesToAddress(args[12:32])

	amount := new(big.Int).SetBytes(args[32:64])

	return recipient, amount, nil
}
