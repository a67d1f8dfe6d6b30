// Package ofx turns OFX/QFX bank and credit card statements into ledger
// drafts.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"lapkeu/internal/core"
	"lapkeu/internal/repository"
)

// IDPrefix marks ids derived from a statement's FITID.
const IDPrefix = "ofx_"

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)`)
	// SGML files from some banks drop the closing bracket of bare tags.
	openTagRe = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])\r?$`)
)

// sectorByType names the sector for transaction kinds that imply one.
var sectorByType = map[string]string{
	"INT":         "Bunga",
	"DIV":         "Dividen",
	"FEE":         "Biaya Bank",
	"SRVCHG":      "Biaya Bank",
	"ATM":         "Tarik Tunai",
	"CASH":        "Tarik Tunai",
	"DIRECTDEP":   "Gaji",
	"XFER":        "Transfer",
	"DIRECTDEBIT": "Tagihan",
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads one statement file. Zero-amount entries are skipped since
// the ledger does not accept them.
func (p *Parser) Parse(r io.Reader) ([]repository.Draft, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("parse OFX file: %w", err)
	}

	var drafts []repository.Draft
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			drafts = appendDrafts(drafts, stmt.BankTranList.Transactions)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			drafts = appendDrafts(drafts, stmt.BankTranList.Transactions)
		}
	}

	slog.Debug("Parsed OFX file",
		"drafts", len(drafts),
		"bank_statements", len(resp.Bank),
		"cc_statements", len(resp.CreditCard))
	return drafts, nil
}

func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRe.ReplaceAllString(content, "$1>")
}

func appendDrafts(drafts []repository.Draft, txs []ofxgo.Transaction) []repository.Draft {
	for _, t := range txs {
		if d, ok := toDraft(t); ok {
			drafts = append(drafts, d)
		}
	}
	return drafts
}

func toDraft(t ofxgo.Transaction) (repository.Draft, bool) {
	f, _ := t.TrnAmt.Float64()
	amount := decimal.NewFromFloat(f)
	whole := amount.Abs().Round(0).IntPart()
	if whole <= 0 {
		return repository.Draft{}, false
	}

	kind := core.Income
	if amount.IsNegative() {
		kind = core.Expense
	}

	d := repository.Draft{
		Type:   kind,
		Note:   noteOf(t),
		Sector: sectorByType[fmt.Sprintf("%v", t.TrnType)],
		Amount: core.Amount(whole),
	}
	if !t.DtPosted.IsZero() {
		d.Date = core.DateOf(t.DtPosted.Time)
	}
	if id := strings.TrimSpace(string(t.FiTID)); id != "" {
		d.ID = IDPrefix + id
	}
	return d, true
}

// noteOf prefers the payee, then the name, then the memo.
func noteOf(t ofxgo.Transaction) string {
	if t.Payee != nil {
		if name := strings.TrimSpace(string(t.Payee.Name)); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(string(t.Name)); name != "" {
		return name
	}
	return strings.TrimSpace(string(t.Memo))
}
