package signer

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Sign signs hash as a personal message, the way wallets sign arbitrary bytes.
func Sign(hash common.Hash, key *ecdsa.PrivateKey) (types.Signature, error) {
	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), key)
	if err != nil {
		return types.Signature{}, errors.Wrap(err, "failed to sign message")
	}

	var res types.Signature
	copy(res.R[:], sig[:32])
	copy(res.S[:], sig[32:64])
	res.V = sig[64]
	if res.V < 27 {
		res.V += 27
	}
	return res, nil
}

// Recover returns the address that produced sig over the personal message hash.
func Recover(hash common.Hash, sig types.Signature) (common.Address, error) {
	v := sig.V
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return common.Address{}, errors.From(errors.New("invalid recovery id"), logan.F{"v": sig.V})
	}

	raw := make([]byte, 65)
	copy(raw[:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = v - 27

	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), raw)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether sig over hash was produced by expected. A malformed
// signature is not an error, it simply does not verify.
func Verify(hash common.Hash, sig types.Signature, expected common.Address) bool {
	if expected == (common.Address{}) {
		return false
	}
	addr, err := Recover(hash, sig)
	return err == nil && addr == expected
}
