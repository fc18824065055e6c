package common

import (
	"fmt"
	"math/big"
	"strings"
)

// FloatStringToBig converts a decimal string amount to its integer
// representation with the given number of decimals.
// Example:
// - FloatStringToBig("1.5", 18) = 1500000000000000000
// - FloatStringToBig("0.0001", 6) = 100
func FloatStringToBig(value string, decimal uint64) (*big.Int, error) {
	f, success := new(big.Float).SetString(strings.TrimSpace(value))
	if !success {
		return nil, fmt.Errorf("couldn't parse '%s' as a decimal number", value)
	}
	// big.Float parses "inf" happily but Int() on an infinity yields nil.
	if f.IsInf() {
		return nil, fmt.Errorf("'%s' is not a finite number", value)
	}
	power := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10), big.NewInt(int64(decimal)), nil,
	))
	f.Mul(f, power)
	res, _ := f.Int(nil)
	return res, nil
}

// BigToFloatString renders an integer token amount as a decimal string,
// trimming trailing zeros.
// Example:
// - BigToFloatString(1100, 3) = "1.1"
func BigToFloatString(value *big.Int, decimal uint64) string {
	f := new(big.Float).SetInt(value)
	power := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10), big.NewInt(int64(decimal)), nil,
	))
	res := new(big.Float).Quo(f, power)
	s := strings.TrimRight(res.Text('f', int(decimal)), "0")
	return strings.TrimRight(s, ".")
}

// GweiToWei converts a gas price in gwei to wei.
func GweiToWei(gwei float64) *big.Int {
	wei := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9))
	res, _ := wei.Int(nil)
	return res
}

// SumDecimalStrings adds a list of decimal string amounts and returns the sum
// as a decimal string. Values must already be validated as parseable.
// 256 bits of mantissa keep the sum exact well past any realistic total,
// the default 64 rounds around 19 significant digits.
func SumDecimalStrings(values []string) string {
	sum := new(big.Float).SetPrec(256)
	for _, v := range values {
		f, ok := new(big.Float).SetPrec(256).SetString(strings.TrimSpace(v))
		if !ok {
			continue
		}
		sum.Add(sum, f)
	}
	text := sum.Text('f', 18)
	text = strings.TrimRight(text, "0")
	return strings.TrimRight(text, ".")
}
