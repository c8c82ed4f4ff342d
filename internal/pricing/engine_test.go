package pricing

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/wallkanda/exchange-svc/internal/types"
)

var (
	centiEther = big.NewInt(10_000_000_000_000_000)
	royaltyTo  = common.HexToAddress("0x7000000000000000000000000000000000000007")
)

type fixedRoyalty struct {
	recipient common.Address
	bps       int64
}

func (r fixedRoyalty) RoyaltyInfo(_ common.Address, _, salePrice *big.Int) (common.Address, *big.Int) {
	amount := new(big.Int).Mul(salePrice, big.NewInt(r.bps))
	return r.recipient, amount.Div(amount, big.NewInt(BasisPoints))
}

func flatOrder(quantity int64) *types.OrderV1 {
	return &types.OrderV1{
		TokenType:  types.V1ERC1155,
		Token:      common.HexToAddress("0x3000000000000000000000000000000000000003"),
		TokenID:    big.NewInt(1),
		Quantity:   big.NewInt(quantity),
		OrderNonce: big.NewInt(1337),
		UnitPrice:  centiEther,
	}
}

func wrappedOrder(price *big.Int, quantity int64, donationBps int64) *types.OrderV3 {
	return &types.OrderV3{
		OrderData: types.OrderV2{
			OutAsset: types.Asset{
				TokenType: types.AssetERC1155,
				Token:     common.HexToAddress("0x3000000000000000000000000000000000000003"),
				TokenID:   big.NewInt(1),
				Quantity:  big.NewInt(quantity),
			},
			InAsset:    types.Ether(price),
			OrderNonce: big.NewInt(1),
		},
		DonationRecipient:  common.HexToAddress("0x4000000000000000000000000000000000000004"),
		DonationPercentage: big.NewInt(donationBps),
	}
}

func meta(buyerFee, sellerFee int64) *types.SaleMeta {
	return &types.SaleMeta{BuyerFee: big.NewInt(buyerFee), SellerFee: big.NewInt(sellerFee)}
}

func ether(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func requireAmount(t *testing.T, want, got *big.Int) {
	t.Helper()
	require.Equal(t, 0, want.Cmp(got), "want %s, got %s", want, got)
}

func requireConserved(t *testing.T, v *types.Values) {
	t.Helper()
	sum := new(big.Int).Add(v.SellerEndValue, v.ServiceFees)
	sum.Add(sum, v.RoyaltiesAmount)
	sum.Add(sum, v.DonationValue)
	require.Equal(t, 0, sum.Cmp(v.TotalTransaction), "sum %s, total transaction %s", sum, v.TotalTransaction)
}

func TestComputeBuyerOnTop(t *testing.T) {
	e := New(FeeModelBuyerOnTop, Rates{BuyerFee: big.NewInt(250), SellerFee: big.NewInt(250)}, nil)

	v, err := e.Compute(flatOrder(8), big.NewInt(1), nil)
	require.NoError(t, err)
	requireAmount(t, centiEther, v.Total)
	requireAmount(t, ether("10250000000000000"), v.TotalTransaction)
	requireAmount(t, ether("250000000000000"), v.ServiceFees)
	requireAmount(t, centiEther, v.SellerEndValue)
	requireConserved(t, v)

	v, err = e.Compute(flatOrder(8), big.NewInt(7), nil)
	require.NoError(t, err)
	requireAmount(t, ether("71750000000000000"), v.TotalTransaction)
	requireConserved(t, v)
}

func TestComputeSplit(t *testing.T) {
	e := New(FeeModelSplit, Rates{BuyerFee: big.NewInt(250), SellerFee: big.NewInt(250)}, nil)

	v, err := e.Compute(flatOrder(8), big.NewInt(1), nil)
	require.NoError(t, err)
	requireAmount(t, ether("10250000000000000"), v.TotalTransaction)
	requireAmount(t, ether("500000000000000"), v.ServiceFees)
	requireAmount(t, ether("9750000000000000"), v.SellerEndValue)
	requireConserved(t, v)
}

func TestComputeFlatIgnoresMeta(t *testing.T) {
	e := New(FeeModelSplit, Rates{BuyerFee: big.NewInt(250), SellerFee: big.NewInt(250)}, nil)

	withMeta, err := e.Compute(flatOrder(8), big.NewInt(1), meta(500, 500))
	require.NoError(t, err)
	without, err := e.Compute(flatOrder(8), big.NewInt(1), nil)
	require.NoError(t, err)
	require.Equal(t, without, withMeta)
	requireAmount(t, ether("10250000000000000"), withMeta.TotalTransaction)
}

func TestComputeRoyalties(t *testing.T) {
	e := New(FeeModelSplit, Rates{BuyerFee: big.NewInt(250), SellerFee: big.NewInt(250)},
		fixedRoyalty{recipient: royaltyTo, bps: 250})

	v, err := e.Compute(flatOrder(8), big.NewInt(1), nil)
	require.NoError(t, err)
	require.Equal(t, royaltyTo, v.RoyaltiesRecipient)
	requireAmount(t, ether("250000000000000"), v.RoyaltiesAmount)
	requireAmount(t, ether("9500000000000000"), v.SellerEndValue)
	requireConserved(t, v)
}

func TestComputeNoRoyaltyRecipient(t *testing.T) {
	e := New(FeeModelSplit, Rates{}, fixedRoyalty{bps: 500})

	v, err := e.Compute(flatOrder(1), big.NewInt(1), nil)
	require.NoError(t, err)
	require.Equal(t, common.Address{}, v.RoyaltiesRecipient)
	require.Zero(t, v.RoyaltiesAmount.Sign())
}

func TestComputeDonation(t *testing.T) {
	e := New(FeeModelSplit, Rates{}, nil)

	v, err := e.Compute(wrappedOrder(centiEther, 1, 150), big.NewInt(1), meta(250, 250))
	require.NoError(t, err)
	requireAmount(t, ether("150000000000000"), v.DonationValue)
	requireAmount(t, ether("9600000000000000"), v.SellerEndValue)
	requireAmount(t, ether("10250000000000000"), v.TotalTransaction)
	requireConserved(t, v)
}

func TestComputeNestedMultipliesBeforeDividing(t *testing.T) {
	e := New(FeeModelBuyerOnTop, Rates{}, nil)

	// 10 wei for 3 units: dividing first would price 2 units at 6 wei
	v, err := e.Compute(wrappedOrder(big.NewInt(10), 3, 0), big.NewInt(2), meta(0, 0))
	require.NoError(t, err)
	requireAmount(t, big.NewInt(6), v.Total)

	v, err = e.Compute(wrappedOrder(big.NewInt(10), 3, 0), big.NewInt(3), meta(0, 0))
	require.NoError(t, err)
	requireAmount(t, big.NewInt(10), v.Total)
}

func TestComputeTruncates(t *testing.T) {
	e := New(FeeModelSplit, Rates{}, fixedRoyalty{recipient: royaltyTo, bps: 333})

	v, err := e.Compute(wrappedOrder(big.NewInt(999), 1, 333), big.NewInt(1), meta(333, 333))
	require.NoError(t, err)
	requireAmount(t, big.NewInt(33), v.RoyaltiesAmount)
	requireAmount(t, big.NewInt(33), v.DonationValue)
	requireAmount(t, big.NewInt(66), v.ServiceFees)
	requireAmount(t, big.NewInt(999-33-33-33), v.SellerEndValue)
	requireAmount(t, big.NewInt(999+33), v.TotalTransaction)
	requireConserved(t, v)
}

func TestComputeRejects(t *testing.T) {
	e := New(FeeModelSplit, Rates{BuyerFee: big.NewInt(250)}, nil)

	_, err := e.Compute(flatOrder(8), big.NewInt(0), nil)
	require.Equal(t, ErrZeroQuantity, err)

	o := flatOrder(8)
	o.MaxPerBuyN = big.NewInt(2)
	_, err = e.Compute(o, big.NewInt(3), nil)
	require.Equal(t, ErrQuantityExceeded, err)
	_, err = e.Compute(o, big.NewInt(2), nil)
	require.NoError(t, err)

	_, err = e.Compute(wrappedOrder(centiEther, 1, 0), big.NewInt(1), nil)
	require.Equal(t, ErrSaleMetaRequired, err)

	_, err = e.Compute(wrappedOrder(centiEther, 1, 0), big.NewInt(1), meta(10001, 0))
	require.Equal(t, ErrInvalidFees, err)

	_, err = e.Compute(wrappedOrder(centiEther, 1, 6000), big.NewInt(1), meta(0, 5000))
	require.Equal(t, ErrInvalidFees, err)

	_, err = e.Compute(wrappedOrder(centiEther, 0, 0), big.NewInt(1), meta(0, 0))
	require.Equal(t, ErrEmptyOrder, err)

	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	_, err = e.Compute(wrappedOrder(huge, 1, 0), big.NewInt(2), meta(0, 0))
	require.Equal(t, ErrAmountOverflow, err)
}

func TestComputeConservation(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, model := range []FeeModel{FeeModelSplit, FeeModelBuyerOnTop} {
		for i := 0; i < 500; i++ {
			e := New(model, Rates{}, fixedRoyalty{recipient: royaltyTo, bps: r.Int63n(1000)})
			capacity := r.Int63n(100) + 1
			price := new(big.Int).Rand(r, new(big.Int).Lsh(big.NewInt(1), 80))
			o := wrappedOrder(price, capacity, r.Int63n(2000))

			v, err := e.Compute(o, big.NewInt(r.Int63n(capacity)+1), meta(r.Int63n(1000), r.Int63n(1000)))
			require.NoError(t, err)
			requireConserved(t, v)
		}
	}
}

func TestParseFeeModel(t *testing.T) {
	m, err := ParseFeeModel("buyer_on_top")
	require.NoError(t, err)
	require.Equal(t, FeeModelBuyerOnTop, m)

	m, err = ParseFeeModel("")
	require.NoError(t, err)
	require.Equal(t, FeeModelSplit, m)

	_, err = ParseFeeModel("seller_pays")
	require.Error(t, err)
}
