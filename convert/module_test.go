package convert

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

func convAddr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

type convertFixture struct {
	tokens  *token.Ledger
	module  *Module
	bridge  *LedgerBridge
	account common.Address
	dai     common.Address
	usds    common.Address
}

func newConvertFixture(t *testing.T) *convertFixture {
	t.Helper()
	tokens := token.NewLedger()
	bridgeAddr := convAddr(0xB0)
	account := convAddr(0xA0)
	dai := convAddr(0x01)
	usds := convAddr(0x02)

	bridge := NewLedgerBridge(tokens, bridgeAddr, dai, usds)
	if err := tokens.Mint(dai, bridgeAddr, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("mint bridge dai: %v", err)
	}
	if err := tokens.Mint(usds, bridgeAddr, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("mint bridge usds: %v", err)
	}

	module, err := NewModule(tokens, bridge, bridgeAddr, dai, usds, account)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return &convertFixture{tokens: tokens, module: module, bridge: bridge, account: account, dai: dai, usds: usds}
}

func TestNewModuleConfigConsistency(t *testing.T) {
	tokens := token.NewLedger()
	dai := convAddr(0x01)
	usds := convAddr(0x02)
	bridgeAddr := convAddr(0xB0)
	bridge := NewLedgerBridge(tokens, bridgeAddr, dai, usds)

	cases := []struct {
		name    string
		bridge  Bridge
		addr    common.Address
		tokenA  common.Address
		tokenB  common.Address
		wantErr bool
	}{
		{name: "fully disabled", bridge: nil},
		{name: "fully enabled", bridge: bridge, addr: bridgeAddr, tokenA: dai, tokenB: usds},
		{name: "bridge without tokens", bridge: bridge, addr: bridgeAddr, wantErr: true},
		{name: "tokens without bridge", tokenA: dai, tokenB: usds, wantErr: true},
		{name: "identical legs", bridge: bridge, addr: bridgeAddr, tokenA: dai, tokenB: dai, wantErr: true},
		{name: "missing bridge address", bridge: bridge, tokenA: dai, tokenB: usds, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewModule(tokens, tc.bridge, tc.addr, tc.tokenA, tc.tokenB, convAddr(0xA0))
			if tc.wantErr && !errors.Is(err, ErrConverterConfigMismatch) {
				t.Fatalf("expected ErrConverterConfigMismatch, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConvertRoundTrips(t *testing.T) {
	fix := newConvertFixture(t)
	if err := fix.tokens.Mint(fix.dai, fix.account, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	out, err := fix.module.ConvertAToB(big.NewInt(60))
	if err != nil {
		t.Fatalf("convert a to b: %v", err)
	}
	if out.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected 60 out, got %s", out)
	}
	if got := fix.tokens.BalanceOf(fix.usds, fix.account); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected 60 usds held, got %s", got)
	}

	back, err := fix.module.ConvertBToA(big.NewInt(60))
	if err != nil {
		t.Fatalf("convert b to a: %v", err)
	}
	if back.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected 60 back, got %s", back)
	}
	if got := fix.tokens.BalanceOf(fix.dai, fix.account); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected 100 dai restored, got %s", got)
	}
}

func TestConvertDetectsShortfall(t *testing.T) {
	fix := newConvertFixture(t)
	if err := fix.tokens.Mint(fix.dai, fix.account, big.NewInt(10_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	fix.bridge.SetShortfallBps(100)

	_, err := fix.module.ConvertAToB(big.NewInt(10_000))
	var mismatch *ConversionFailedError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ConversionFailedError, got %v", err)
	}
	if mismatch.Expected.Cmp(big.NewInt(10_000)) != 0 || mismatch.Actual.Cmp(big.NewInt(9_900)) != 0 {
		t.Fatalf("unexpected mismatch payload: %+v", mismatch)
	}
}

func TestConvertValidation(t *testing.T) {
	fix := newConvertFixture(t)

	if _, err := fix.module.ConvertAToB(big.NewInt(0)); !errors.Is(err, ErrZeroConversionAmount) {
		t.Fatalf("expected ErrZeroConversionAmount, got %v", err)
	}
	if _, err := fix.module.Convert(convAddr(0x77), big.NewInt(1)); !errors.Is(err, ErrUnknownConversionToken) {
		t.Fatalf("expected ErrUnknownConversionToken, got %v", err)
	}

	disabled, err := NewModule(fix.tokens, nil, common.Address{}, common.Address{}, common.Address{}, fix.account)
	if err != nil {
		t.Fatalf("new disabled module: %v", err)
	}
	if _, err := disabled.ConvertAToB(big.NewInt(1)); !errors.Is(err, ErrConversionDisabled) {
		t.Fatalf("expected ErrConversionDisabled, got %v", err)
	}
}

func TestConversionPathRecognition(t *testing.T) {
	fix := newConvertFixture(t)

	forward := EncodeConversionPath(fix.dai, fix.usds)
	backward := EncodeConversionPath(fix.usds, fix.dai)
	if !fix.module.IsConversionPath(forward) {
		t.Fatalf("expected forward path recognised")
	}
	if !fix.module.IsConversionPath(backward) {
		t.Fatalf("expected backward path recognised")
	}

	// Wrong endpoints.
	if fix.module.IsConversionPath(EncodeConversionPath(fix.dai, convAddr(0x77))) {
		t.Fatalf("foreign endpoint must not be a conversion path")
	}
	// A 43-byte router hop (fee tier present) must not match.
	withFee := append(append([]byte{}, forward[:20]...), 0x00, 0x0B, 0xB8)
	withFee = append(withFee, forward[20:]...)
	if fix.module.IsConversionPath(withFee) {
		t.Fatalf("fee-bearing path must not be a conversion path")
	}
	// Truncated payloads must not match.
	if fix.module.IsConversionPath(forward[:39]) {
		t.Fatalf("truncated path must not be a conversion path")
	}

	disabled, err := NewModule(fix.tokens, nil, common.Address{}, common.Address{}, common.Address{}, fix.account)
	if err != nil {
		t.Fatalf("new disabled module: %v", err)
	}
	if disabled.IsConversionPath(forward) {
		t.Fatalf("disabled module must not recognise conversion paths")
	}
}

func TestConversionLeavesNoDanglingAllowance(t *testing.T) {
	fix := newConvertFixture(t)
	if err := fix.tokens.Mint(fix.dai, fix.account, big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := fix.module.ConvertAToB(big.NewInt(50)); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got := fix.tokens.Allowance(fix.dai, fix.account, fix.module.bridgeAddress); got.Sign() != 0 {
		t.Fatalf("expected zero allowance, got %s", got)
	}
}
