package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/curvemkt/curved/internal/config"
	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/curve"
)

var quoteSold uint64

var quoteCmd = &cobra.Command{
	Use:   "quote <buy|sell> <amount>",
	Short: "Compute a curve quote offline",
	Long: `Compute a bonding-curve quote from the configured calibration
without talking to a daemon. Buy amounts are decimal ETH ("1.5"); sell
amounts are whole tokens. --sold positions the quote partway up the
curve. Platform trading fees are not part of curve math and are not
included here.`,
	Args: cobra.ExactArgs(2),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().Uint64Var(&quoteSold, "sold", 0, "whole tokens already sold")
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	params, err := cfg.CurveParams()
	if err != nil {
		return err
	}

	eng := curve.New(params)
	sold := amount.FromWhole(quoteSold)
	if sold.GT(params.TokenLimit) {
		return fmt.Errorf("--sold %d exceeds the %s-token allocation", quoteSold, params.TokenLimit.WholeTokens())
	}

	switch args[0] {
	case "buy":
		budget, err := amount.ParseDecimal(args[1])
		if err != nil {
			return fmt.Errorf("buy amount: %w", err)
		}
		if budget.IsZero() {
			return fmt.Errorf("buy amount must be positive")
		}
		tokens, spent := eng.TokensForBudget(sold, budget)
		refund, _ := budget.Sub(spent)
		after := sold.Add(tokens)

		fmt.Printf("tokens out:   %s whole (%s base units)\n", tokens.WholeTokens(), tokens)
		fmt.Printf("spent:        %s ETH\n", spent.Decimal())
		if refund.IsPositive() {
			fmt.Printf("refund:       %s ETH\n", refund.Decimal())
		}
		fmt.Printf("price after:  %s ETH/token\n", eng.BuyPrice(after).Decimal())

	case "sell":
		n, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("sell amount: %w", err)
		}
		amt := amount.FromWhole(n)
		if amt.IsZero() {
			return fmt.Errorf("sell amount must be positive")
		}
		if amt.GT(sold) {
			return fmt.Errorf("cannot sell %d tokens with only %d sold; raise --sold", n, quoteSold)
		}
		proceeds := eng.SellProceeds(sold, amt)
		remaining, _ := sold.Sub(amt)

		fmt.Printf("proceeds:     %s ETH\n", proceeds.Decimal())
		fmt.Printf("price after:  %s ETH/token\n", eng.SellPrice(remaining).Decimal())

	default:
		return fmt.Errorf("side must be buy or sell, got %q", args[0])
	}

	fmt.Printf("curve target: %s ETH\n", eng.DefaultTarget().Decimal())
	return nil
}
