package cli

import (
	"fmt"
	"io"

	"github.com/wallkanda/exchange-svc/internal/config"
	"github.com/wallkanda/exchange-svc/internal/editions"
	"github.com/wallkanda/exchange-svc/internal/ledger"
	"gitlab.com/distributed_lab/logan/v3"
)

// editionsToken prints the token id an edition minted with metadata gets, and
// the URIs the registry serves for it.
func editionsToken(w io.Writer, cfg config.Editions, log *logan.Entry, metadata string) error {
	r := editions.New(cfg.Config, ledger.New(), log)
	id := editions.TokenID([]byte(metadata))

	_, err := fmt.Fprintf(w, "registry      %s\nid            %s\nuri           %s\ncontract_uri  %s\n",
		r.Address().Hex(), id.String(), r.URI(id), r.ContractURI())
	return err
}
