package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"drtManager/internal/model"
)

type poolReport struct {
	model.PoolView
	ID              string              `json:"id"`
	FeeVaultBalance uint64              `json:"fee_vault_balance"`
	FeeVaultSOL     string              `json:"fee_vault_sol"`
	Instances       []model.DrtInstance `json:"instances"`
	Holdings        []model.Holding     `json:"holdings,omitempty"`
}

func poolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [POOL]",
		Short: "Show a pool with its DRT instances, or list pools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if len(args) == 0 {
				pools, err := a.ledger.ListPools(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, pools)
			}

			addr, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("parse pool: %w", err)
			}
			pool, err := a.ledger.GetPool(ctx, addr)
			if err != nil {
				return err
			}
			fees, err := a.ledger.FeeVaultBalance(ctx, addr)
			if err != nil {
				return err
			}
			instances, err := a.ledger.ListDrtInstances(ctx, addr)
			if err != nil {
				return err
			}
			report := poolReport{
				PoolView:        pool,
				ID:              model.PoolID(addr).String(),
				FeeVaultBalance: fees,
				FeeVaultSOL:     sol(fees),
				Instances:       instances,
			}
			if withHoldings, _ := cmd.Flags().GetBool("holdings"); withHoldings {
				if report.Holdings, err = a.ledger.ListHoldings(ctx, addr); err != nil {
					return err
				}
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().Bool("holdings", false, "include token holdings")
	return cmd
}

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [ADDRESS]",
		Short: "Show the lamport and token balance of an address, the signer by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			var addr solana.PublicKey
			if len(args) == 1 {
				if addr, err = solana.PublicKeyFromBase58(args[0]); err != nil {
					return fmt.Errorf("parse address: %w", err)
				}
			} else {
				key, err := a.signer()
				if err != nil {
					return err
				}
				addr = key.PublicKey()
			}

			lamports, err := a.ledger.Balance(ctx, addr)
			if err != nil {
				return err
			}
			out := map[string]interface{}{
				"address":  addr,
				"lamports": lamports,
				"sol":      sol(lamports),
			}
			if raw, _ := cmd.Flags().GetString("mint"); raw != "" {
				mint, err := solana.PublicKeyFromBase58(raw)
				if err != nil {
					return fmt.Errorf("parse mint: %w", err)
				}
				tokens, err := a.ledger.TokenBalance(ctx, addr, mint)
				if err != nil {
					return err
				}
				holding, err := a.ledger.HoldingAddress(addr, mint)
				if err != nil {
					return err
				}
				out["mint"] = mint
				out["holding"] = holding
				out["tokens"] = tokens
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().String("mint", "", "also show the balance of this token mint")
	return cmd
}
