package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strings"

	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/ElrondNetwork/elrond-go-crypto/signing"
	"github.com/ElrondNetwork/elrond-go-crypto/signing/ed25519"
	"github.com/btcsuite/btcutil/bech32"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
)

const hardened = uint32(0x80000000)

type bip32Path []uint32

type bip32 struct {
	Key       []byte
	ChainCode []byte
}

var basePath = bip32Path{
	44 + hardened,
	508 + hardened,
	hardened,
	hardened,
	hardened,
}

var keyGen = signing.NewKeyGenerator(ed25519.NewEd25519())

// GetHTTP - performs a GET request and returns the response body
func GetHTTP(ctx context.Context, address string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, err
	}
	client := http.DefaultClient
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return body, nil
}

func FormatTgUser(user *tgbotapi.User) string {
	name := fmt.Sprintf("%s %s [%v]", user.FirstName, user.LastName, user.ID)
	name = strings.TrimSpace(name)
	name = strings.Replace(name, "  ", " ", 1)
	if user.UserName != "" {
		name = fmt.Sprintf("@%s (%s)", user.UserName, name)
	}

	return name
}

func FormatDbTgUser(user *data.Telegram) string {
	if user.UserName != "" {
		return "@" + user.UserName
	}

	name := fmt.Sprintf("%s %s", user.FirstName, user.LastName)
	name = strings.TrimSpace(name)
	name = strings.Replace(name, "  ", " ", 1)
	name = fmt.Sprintf("[%s](tg://user?id=%v)", name, user.ID)

	return name
}

// NewMnemonic - generates a fresh 24 words mnemonic
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}

	return bip39.NewMnemonic(entropy)
}

// GetPrivateKeyFromSeed - derives the private key of the wallet with the given
// index from a mnemonic, on the m/44'/508'/0'/x'/y' path
func GetPrivateKeyFromSeed(seedphrase string, index int64) []byte {
	seed := bip39.NewSeed(seedphrase, "")
	path := make(bip32Path, len(basePath))
	copy(path, basePath)
	path[3] = hardened + uint32(index>>32)
	path[4] = hardened + uint32(index&0xFFFFFFFF)
	keyData := derivePrivateKey(seed, path)

	return keyData.Key
}

// GetPublicKeyFromPrivateKey - returns the ed25519 public key of a private key
func GetPublicKeyFromPrivateKey(privBytes []byte) ([]byte, error) {
	txSignPrivKey, err := keyGen.PrivateKeyFromByteArray(privBytes)
	if err != nil {
		return nil, err
	}

	return txSignPrivKey.GeneratePublic().ToByteArray()
}

// GetAddressFromPrivateKey - returns the erd1 bech32 address of a private key
func GetAddressFromPrivateKey(privBytes []byte) (string, error) {
	pubBytes, err := GetPublicKeyFromPrivateKey(privBytes)
	if err != nil {
		return "", err
	}
	b, err := bech32.ConvertBits(pubBytes, 8, 5, true)
	if err != nil {
		return "", err
	}

	return bech32.Encode("erd", b)
}

func derivePrivateKey(seed []byte, path bip32Path) *bip32 {
	b := &bip32{}
	digest := hmac.New(sha512.New, []byte("ed25519 seed"))
	digest.Write(seed)
	intermediary := digest.Sum(nil)
	b.Key = intermediary[:32]
	b.ChainCode = intermediary[32:]
	for _, childIdx := range path {
		data := make([]byte, 1+32+4)
		data[0] = 0x00
		copy(data[1:1+32], b.Key)
		binary.BigEndian.PutUint32(data[1+32:1+32+4], childIdx)
		digest = hmac.New(sha512.New, b.ChainCode)
		digest.Write(data)
		intermediary = digest.Sum(nil)
		b.Key = intermediary[:32]
		b.ChainCode = intermediary[32:]
	}
	return b
}

// ToDenominated - converts a human readable amount ("0.02") to the smallest unit
func ToDenominated(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}

	d = d.Shift(Denomination)
	if !d.Equal(d.Truncate(0)) {
		return nil, ErrTooManyDecimals
	}

	return d.BigInt(), nil
}

// MustDenominate - like ToDenominated but panics on invalid input
func MustDenominate(amount string) *big.Int {
	value, err := ToDenominated(amount)
	if err != nil {
		panic(err)
	}

	return value
}

// FromDenominated - converts an amount in the smallest unit to EGLD
func FromDenominated(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(value, -Denomination)
}

// ToFloat - same as FromDenominated, as float64, for display purposes only
func ToFloat(value *big.Int) float64 {
	f, _ := FromDenominated(value).Float64()

	return f
}

func NicePrice(f float64, decimals int) string {
	s := fmt.Sprintf("%v", uint64(f))
	for idx := len(s) - 3; idx > 0; idx -= 3 {
		s = s[:idx] + "," + s[idx:]
	}
	if decimals > 0 {
		s += "."
	}
	for i := 0; i < decimals; i++ {
		f -= math.Trunc(f)
		f *= 10
		s += fmt.Sprintf("%v", uint64(f))
	}

	if decimals == -1 { // auto
		if math.Ceil(f) == f {
			return s
		}
		s += "."
		nnd := 0
		nndFound := false
		for i := 0; i < 18; i++ {
			f -= math.Trunc(f)
			f *= 10
			d := uint64(f)
			s += fmt.Sprintf("%v", d)
			if d != 0 && !nndFound {
				nndFound = true
			}
			if nndFound {
				nnd++
				if nnd >= 4 {
					for strings.HasSuffix(s, "0") {
						s = strings.TrimSuffix(s, "0")
					}
					s = strings.TrimSuffix(s, ".")
					break
				}
			}
		}
	}

	return s
}

func ShortenAddress(address string) string {
	l := len(address)
	if l < 14 {
		return ""
	}

	return address[:8] + "..." + address[l-6:]
}
