package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/langowen/posratio/deploy/config"
	"github.com/langowen/posratio/internal/api_service/ports/http/public"
	"github.com/langowen/posratio/internal/api_service/service"
	"github.com/langowen/posratio/internal/bootstrap"
	"github.com/langowen/posratio/internal/entities"
	"github.com/spf13/cobra"
)

func selectCmd() *cobra.Command {
	var c entities.Criteria

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print the cheapest POS for a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			bootstrap.InitLogger(cfg.Log.Level)

			c.Currency = strings.ToUpper(c.Currency)
			if err := validateCriteria(c, cfg.Selection); err != nil {
				return err
			}

			deps := bootstrap.New(cfg)
			defer deps.Close()

			ctx := cmd.Context()

			store, err := deps.Store(ctx, nil)
			if err != nil {
				return err
			}

			calc := service.NewCostCalculator(cfg.Selection.CurrencyMultipliers)
			svc := service.NewService(store, service.NewFilter(), service.NewSelector(calc), nil)

			sel, err := svc.SelectBest(ctx, c)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(public.NewSelectResponse(sel))
		},
	}

	cmd.Flags().Float64Var(&c.Amount, "amount", 0, "Transaction amount")
	cmd.Flags().IntVar(&c.Installment, "installment", 1, "Installment count")
	cmd.Flags().StringVar(&c.Currency, "currency", "", "Currency code")
	cmd.Flags().StringVar(&c.CardType, "card-type", "", "Card type (credit, debit)")
	cmd.Flags().StringVar(&c.CardBrand, "card-brand", "", "Card brand")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("currency")

	return cmd
}

func validateCriteria(c entities.Criteria, sel config.Selection) error {
	switch {
	case c.Amount <= 0:
		return fmt.Errorf("Invalid amount value")
	case c.Installment <= 0:
		return fmt.Errorf("Invalid installment value")
	case !sel.IsSupportedCurrency(c.Currency):
		return fmt.Errorf("Invalid currency value. Supported: %s", sel.CurrencyList())
	case c.CardType != "" && !sel.IsCardType(c.CardType):
		return fmt.Errorf("Invalid card type. Supported: %s", sel.CardTypeList())
	}

	return nil
}
