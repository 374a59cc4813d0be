package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS airdrop_run (
	uuid          uuid PRIMARY KEY,
	network       text        NOT NULL,
	wallet        text        NOT NULL,
	jetton_wallet text        NOT NULL,
	total         numeric     NOT NULL,
	dry_run       boolean     NOT NULL,
	status        text        NOT NULL,
	error         text        NOT NULL DEFAULT '',
	started_at    timestamptz NOT NULL,
	finished_at   timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS airdrop_transfer (
	run_uuid uuid    NOT NULL REFERENCES airdrop_run (uuid),
	idx      integer NOT NULL,
	wallet   text    NOT NULL,
	amount   numeric NOT NULL,
	status   text    NOT NULL,
	chunk    integer NOT NULL,
	tx_hash  text    NOT NULL DEFAULT '',
	query_id bigint  NOT NULL DEFAULT 0,
	error    text    NOT NULL DEFAULT '',
	PRIMARY KEY (run_uuid, idx)
);
`

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("couldn't create schema: %w", err)
	}
	return nil
}
