package common

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestWithdrawCalldataRoundTrip(t *testing.T) {
	testCases := []struct {
		recipient common.Address
		amount    *big.Int
	}{
		{common.HexToAddress("0x5815E61eF72c9E6107b5c5A05FD121F334f7a7f1"), big.NewInt(100000000000000000)},
		{common.HexToAddress("0x29d755C17df3ED2eCAE6e42d694fb4F7E2ff6010"), big.NewInt(1)},
		{common.Address{}, big.NewInt(0)},
	}

	for _, tc := range testCases {
		calldata := PackWithdraw(tc.recipient, tc.amount)

		recipient, amount, err := ParseWithdraw(calldata)
		if err != nil {
			t.Fatalf("ParseWithdraw: %s", err)
		}

		if recipient != tc.recipient {
			t.Fatalf("expected recipient %s, got %s", tc.recipient, recipient)
		}

		if amount.Cmp(tc.amount) != 0 {
			t.Fatalf("expected amount %s, got %s", tc.amount, amount)
		}
	}
}

func TestParseWithdrawRejectsInvalid(t *testing.T) {
	_, _, err := ParseWithdraw([]byte{0x01, 0x02})
	if !errors.Is(err, ErrInvalidCalldata) {
		t.Fatalf("expected ErrInvalidCalldata, got %v", err)
	}

	calldata := PackWithdraw(common.Address{}, big.NewInt(1))
	calldata[0] ^= 0xff

	_, _, err = ParseWithdraw(calldata)
	if !errors.Is(err, ErrNotWithdraw) {
		t.Fatalf("expected ErrNotWithdraw, got %v", err)
	}
}
