package parse

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/sql/token"
)

func parseTransactionBegin(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("BEGIN"); err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("TRANSACTION")
	return event.New("transaction_begin", nil)
}

func parseTransactionCommit(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("COMMIT"); err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("TRANSACTION")
	return event.New("transaction_commit", nil)
}

func parseTransactionRollback(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("ROLLBACK"); err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("TRANSACTION")
	return event.New("transaction_rollback", nil)
}
