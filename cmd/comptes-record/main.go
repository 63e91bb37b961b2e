// comptes-record saves one bank operation from the command line. Third
// party, category and sub-category may be given as plain names; unknown
// names are created on the server before the operation is saved.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"comptes/internal/cli"
	"comptes/internal/core"
	"comptes/internal/resolver"
	"comptes/internal/rest"
)

func main() {
	var (
		accountID   = flag.Int64("account", 0, "account id (required)")
		date        = flag.String("date", "", "operation date, YYYY-MM-DD (default today)")
		amount      = flag.String("amount", "", "amount, e.g. 12.34 (required)")
		opType      = flag.String("type", "charge", "operation type: charge or credit")
		thirdParty  = flag.String("third-party", "", "third party name (required)")
		category    = flag.String("category", "", "category name (required)")
		subCategory = flag.String("sub-category", "", "sub-category name (optional)")
		bankNoteNum = flag.String("bank-note", "", "bank note number (optional)")
		state       = flag.String("state", "NOT_BALANCED", "balance state: NOT_BALANCED, PENDING or BALANCED")
		notes       = flag.String("notes", "", "free-form notes (optional)")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	draft, err := buildDraft(*accountID, *date, *amount, *opType, *thirdParty,
		*category, *subCategory, *bankNoteNum, *state, *notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "comptes-record: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := rest.NewClient(cfg.ServerBaseURL, nil)

	thirdParties, err := client.ThirdParties().List(ctx)
	if err != nil {
		logger.Error("failed to load third parties", "error", err)
		os.Exit(1)
	}
	charge, err := client.Categories().ListByType(ctx, core.Charge)
	if err != nil {
		logger.Error("failed to load charge categories", "error", err)
		os.Exit(1)
	}
	credit, err := client.Categories().ListByType(ctx, core.Credit)
	if err != nil {
		logger.Error("failed to load credit categories", "error", err)
		os.Exit(1)
	}
	tax := resolver.Load(thirdParties, charge, credit)

	r := resolver.New(client.ThirdParties(), client.Categories(),
		client.SubCategories(), client.BankOperations(), logger)

	saved, err := r.ResolveAndSave(ctx, draft, tax, nil)
	if err != nil {
		logger.Error("failed to save operation", "error", err)
		os.Exit(1)
	}

	fmt.Printf("saved operation %d on account %d: %s %s to %q\n",
		saved.ID, saved.AccountID, saved.Type(), saved.Amount(), saved.ThirdParty.Name)
}

func buildDraft(accountID int64, date, amount, opType, thirdParty,
	category, subCategory, bankNoteNum, state, notes string) (core.DraftOperation, error) {

	if accountID == 0 {
		return core.DraftOperation{}, fmt.Errorf("missing -account")
	}
	if thirdParty == "" {
		return core.DraftOperation{}, fmt.Errorf("missing -third-party")
	}
	if category == "" {
		return core.DraftOperation{}, fmt.Errorf("missing -category")
	}

	when := time.Now()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return core.DraftOperation{}, fmt.Errorf("invalid -date %q: want YYYY-MM-DD", date)
		}
		when = parsed
	}

	money, err := core.ParseAmount(amount)
	if err != nil {
		return core.DraftOperation{}, fmt.Errorf("invalid -amount %q: %w", amount, err)
	}

	draft := core.DraftOperation{
		AccountID:     accountID,
		BankNoteNum:   bankNoteNum,
		OperationDate: when.UnixMilli(),
		BalanceState:  core.BalanceState(strings.ToUpper(state)),
		ThirdParty:    core.Unresolved[core.ThirdParty](thirdParty),
		Category:      core.Unresolved[core.Category](category),
		Notes:         notes,
	}
	if subCategory != "" {
		draft.SubCategory = core.Unresolved[core.SubCategory](subCategory)
	}

	switch strings.ToLower(opType) {
	case "charge":
		draft.Type = core.Charge
		draft.Charge = &money
	case "credit":
		draft.Type = core.Credit
		draft.Credit = &money
	default:
		return core.DraftOperation{}, fmt.Errorf("invalid -type %q: want charge or credit", opType)
	}

	return draft, nil
}
