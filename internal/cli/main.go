package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin"
	"github.com/wallkanda/exchange-svc/internal/config"
	"github.com/wallkanda/exchange-svc/internal/data/mem"
	"github.com/wallkanda/exchange-svc/internal/data/postgres"
	"github.com/wallkanda/exchange-svc/internal/service"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3"
)

func Run(args []string) bool {
	log := logan.New()

	defer func() {
		if rvr := recover(); rvr != nil {
			log.WithRecover(rvr).Error("app panicked")
		}
	}()

	cfg := config.New(kv.MustFromEnv())
	log = cfg.Log()

	app := kingpin.New("exchange-svc", "Off-chain order protocol of the NFT exchange")

	runCmd := app.Command("run", "run command")
	indexerCmd := runCmd.Command("indexer", "mirror on-chain fills of the exchange into the database")

	migrateCmd := app.Command("migrate", "migrate command")
	migrateUpCmd := migrateCmd.Command("up", "migrate db up")
	migrateDownCmd := migrateCmd.Command("down", "migrate db down")

	orderCmd := app.Command("order", "order tooling")
	hashCmd := orderCmd.Command("hash", "print the message a maker signs for an order")
	hashFile := hashCmd.Arg("file", "order JSON file").Required().ExistingFile()

	priceCmd := orderCmd.Command("price", "price a fill of an order")
	priceFile := priceCmd.Arg("file", "order JSON file").Required().ExistingFile()
	priceQuantity := priceCmd.Flag("quantity", "units to buy").Default("1").String()
	priceMeta := priceCmd.Flag("meta", "sale meta JSON file").ExistingFile()

	signCmd := orderCmd.Command("sign", "sign an order with the configured key")
	signFile := signCmd.Arg("file", "order JSON file").Required().ExistingFile()

	authorizeCmd := orderCmd.Command("authorize", "countersign a sale meta with the configured key")
	authorizeFile := authorizeCmd.Arg("file", "order JSON file").Required().ExistingFile()
	authorizeMeta := authorizeCmd.Flag("meta", "sale meta JSON file").Required().ExistingFile()
	authorizeSig := authorizeCmd.Flag("signature", "maker signature JSON file").Required().ExistingFile()

	checkCmd := orderCmd.Command("check", "run the settlement checks of a fill against the recorded fills")
	var check checkArgs
	checkCmd.Arg("file", "order JSON file").Required().ExistingFileVar(&check.OrderPath)
	checkCmd.Flag("signature", "maker signature JSON file").Required().ExistingFileVar(&check.SignaturePath)
	checkCmd.Flag("buyer", "buyer address").Required().StringVar(&check.Buyer)
	checkCmd.Flag("quantity", "units to buy").Default("1").StringVar(&check.Quantity)
	checkCmd.Flag("meta", "sale meta JSON file").ExistingFileVar(&check.MetaPath)
	checkCmd.Flag("meta-signature", "sale meta signature JSON file").ExistingFileVar(&check.MetaSigPath)
	checkCmd.Flag("value", "offered payment in wei").StringVar(&check.Value)

	editionsCmd := app.Command("editions", "editions registry tooling")
	tokenCmd := editionsCmd.Command("token", "print the token id and URIs of an edition")
	tokenMetadata := tokenCmd.Arg("metadata", "mint metadata").Required().String()

	cmd, err := app.Parse(args[1:])
	if err != nil {
		log.WithError(err).Error("failed to parse arguments")
		return false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case indexerCmd.FullCommand():
		service.Run(ctx, cfg)
	case migrateUpCmd.FullCommand():
		err = MigrateUp(cfg)
	case migrateDownCmd.FullCommand():
		err = MigrateDown(cfg)
	case hashCmd.FullCommand():
		err = orderHash(os.Stdout, *hashFile)
	case priceCmd.FullCommand():
		err = orderPrice(os.Stdout, newExchange(cfg.Exchange(), log, mem.NewFills()), *priceFile, *priceQuantity, *priceMeta)
	case checkCmd.FullCommand():
		err = orderCheck(os.Stdout, newExchange(cfg.Exchange(), log, postgres.NewFills(cfg.DB())), check)
	case signCmd.FullCommand():
		err = orderSign(os.Stdout, cfg.Signer(), *signFile)
	case authorizeCmd.FullCommand():
		err = orderAuthorize(os.Stdout, cfg.Signer(), *authorizeFile, *authorizeSig, *authorizeMeta)
	case tokenCmd.FullCommand():
		err = editionsToken(os.Stdout, cfg.Editions(), log, *tokenMetadata)
	default:
		log.Errorf("unknown command %s", cmd)
		return false
	}
	if err != nil {
		log.WithError(err).Error("failed to exec cmd")
		return false
	}
	return true
}
