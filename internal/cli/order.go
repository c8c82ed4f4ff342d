package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/wallkanda/exchange-svc/internal/config"
	"github.com/wallkanda/exchange-svc/internal/data"
	"github.com/wallkanda/exchange-svc/internal/exchange"
	"github.com/wallkanda/exchange-svc/internal/signer"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const etherDecimals = 18

var (
	errNoSigner       = errors.New("signer private_key is not configured")
	errWrongMakerSign = errors.New("order signature does not recover to the maker")
)

// newExchange builds an exchange that validates and prices fills against the
// given fill store. It has no transfer proxy and never settles.
func newExchange(cfg config.Exchange, log *logan.Entry, fills data.Fills) *exchange.Exchange {
	return exchange.New(exchange.Config{
		Address:     cfg.Address,
		Beneficiary: cfg.Beneficiary,
		Signer:      cfg.Signer,
		FeeModel:    cfg.FeeModel,
		BuyerFee:    cfg.BuyerFee,
		SellerFee:   cfg.SellerFee,
	}, log, fills, nil, nil)
}

func readOrder(path string) (types.Order, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read order file", logan.F{"path": path})
	}
	return types.DecodeOrder(raw)
}

func readSaleMeta(path string) (*types.SaleMeta, error) {
	if path == "" {
		return nil, nil
	}
	meta := new(types.SaleMeta)
	if err := readJSON(path, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func parseAmount(name, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, errors.From(errors.New("malformed amount"), logan.F{name: value})
	}
	return amount, nil
}

func readJSON(path string, dst interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read file", logan.F{"path": path})
	}
	return errors.Wrap(json.Unmarshal(raw, dst), "failed to decode file", logan.F{"path": path})
}

func orderHash(w io.Writer, path string) error {
	o, err := readOrder(path)
	if err != nil {
		return err
	}
	hash, err := signer.PrepareMessage(o)
	if err != nil {
		return errors.Wrap(err, "failed to prepare order message")
	}
	_, err = fmt.Fprintln(w, hash.Hex())
	return err
}

func orderSign(w io.Writer, s config.Signer, path string) error {
	if s.PrivateKey == nil {
		return errNoSigner
	}
	o, err := readOrder(path)
	if err != nil {
		return err
	}
	hash, err := signer.PrepareMessage(o)
	if err != nil {
		return errors.Wrap(err, "failed to prepare order message")
	}
	sig, err := signer.Sign(hash, s.PrivateKey)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(sig)
}

// orderAuthorize countersigns a sale meta for an order already signed by its maker.
func orderAuthorize(w io.Writer, s config.Signer, orderPath, sigPath, metaPath string) error {
	if s.PrivateKey == nil {
		return errNoSigner
	}
	o, err := readOrder(orderPath)
	if err != nil {
		return err
	}
	var orderSig types.Signature
	if err = readJSON(sigPath, &orderSig); err != nil {
		return err
	}
	makerHash, err := signer.PrepareMessage(o)
	if err != nil {
		return errors.Wrap(err, "failed to prepare order message")
	}
	if !signer.Verify(makerHash, orderSig, o.MakerAddress()) {
		return errors.From(errWrongMakerSign, logan.F{"maker": o.MakerAddress().Hex()})
	}
	var meta types.SaleMeta
	if err := readJSON(metaPath, &meta); err != nil {
		return err
	}

	hash, err := signer.PrepareOrderMetaMessage(orderSig, &meta)
	if err != nil {
		return errors.Wrap(err, "failed to prepare sale meta message")
	}
	sig, err := signer.Sign(hash, s.PrivateKey)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(sig)
}

// orderPrice prices a fill with the configured rates. Royalties are not looked
// up on chain, so they are left out of the result.
func orderPrice(w io.Writer, ex *exchange.Exchange, path, quantity, metaPath string) error {
	o, err := readOrder(path)
	if err != nil {
		return err
	}
	qty, err := parseAmount("quantity", quantity)
	if err != nil {
		return err
	}
	meta, err := readSaleMeta(metaPath)
	if err != nil {
		return err
	}

	values, err := ex.ComputeValues(o, qty, meta)
	if err != nil {
		return errors.Wrap(err, "failed to compute values")
	}
	if err = printValues(w, values); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, "royalties are excluded from this quote")
	return err
}

type checkArgs struct {
	OrderPath     string
	SignaturePath string
	Buyer         string
	Quantity      string
	MetaPath      string
	MetaSigPath   string
	// optional, compared with the total transaction when set
	Value string
}

// orderCheck runs every settlement check of a fill against the recorded fills
// and prints its price.
func orderCheck(w io.Writer, ex *exchange.Exchange, args checkArgs) error {
	o, err := readOrder(args.OrderPath)
	if err != nil {
		return err
	}
	if !common.IsHexAddress(args.Buyer) {
		return errors.From(errors.New("malformed buyer address"), logan.F{"buyer": args.Buyer})
	}

	req := exchange.BuyRequest{Buyer: common.HexToAddress(args.Buyer), Order: o}
	if err = readJSON(args.SignaturePath, &req.Signature); err != nil {
		return err
	}
	if req.Quantity, err = parseAmount("quantity", args.Quantity); err != nil {
		return err
	}
	if req.SaleMeta, err = readSaleMeta(args.MetaPath); err != nil {
		return err
	}
	if args.MetaSigPath != "" {
		req.SaleMetaSignature = new(types.Signature)
		if err = readJSON(args.MetaSigPath, req.SaleMetaSignature); err != nil {
			return err
		}
	}
	if args.Value != "" {
		if req.Value, err = parseAmount("value", args.Value); err != nil {
			return err
		}
	}

	values, err := ex.Check(req)
	if err != nil {
		return errors.Wrap(err, "fill would be rejected")
	}
	if err = printValues(w, values); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, "royalties are excluded from this quote")
	return err
}

func printValues(w io.Writer, v *types.Values) error {
	rows := []struct {
		name  string
		value *big.Int
	}{
		{"total", v.Total},
		{"buyer_fee", v.BuyerFee},
		{"seller_fee", v.SellerFee},
		{"service_fees", v.ServiceFees},
		{"royalties", v.RoyaltiesAmount},
		{"donation", v.DonationValue},
		{"seller_end_value", v.SellerEndValue},
		{"total_transaction", v.TotalTransaction},
	}
	for _, r := range rows {
		wei := r.value
		if wei == nil {
			wei = new(big.Int)
		}
		ether := decimal.NewFromBigInt(wei, -etherDecimals)
		if _, err := fmt.Fprintf(w, "%-18s %30s wei  %s ether\n", r.name, wei.String(), ether.String()); err != nil {
			return err
		}
	}
	return nil
}
