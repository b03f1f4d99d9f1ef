package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"drtManager/internal/config"
	"drtManager/internal/ledger"
)

// txCommands returns the commands that sign and submit one instruction.
func txCommands() []*cobra.Command {
	airdrop := txCmd("airdrop LAMPORTS", "Credit lamports from the development faucet", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string, a *app, signer solana.PublicKey) (ledger.Instruction, error) {
			lamports, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return ledger.Instruction{}, fmt.Errorf("parse lamports: %w", err)
			}
			recipient := signer
			if to, _ := cmd.Flags().GetString("to"); to != "" {
				if recipient, err = solana.PublicKeyFromBase58(to); err != nil {
					return ledger.Instruction{}, fmt.Errorf("parse recipient: %w", err)
				}
			}
			return ledger.Airdrop(recipient, lamports), nil
		})
	airdrop.Flags().String("to", "", "recipient, defaults to the signer")

	createPool := txCmd("create-pool NAME", "Create a pool with its DRT types and ownership supply", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string, a *app, _ solana.PublicKey) (ledger.Instruction, error) {
			specs, _ := cmd.Flags().GetStringArray("drt")
			drts := make([]ledger.DrtParams, 0, len(specs))
			for _, raw := range specs {
				arg, err := config.ParseDrtArg(raw)
				if err != nil {
					return ledger.Instruction{}, err
				}
				drts = append(drts, ledger.DrtParams{
					DrtType:   arg.Type,
					Supply:    arg.Supply,
					Cost:      arg.Cost,
					GithubURL: arg.GithubURL,
					CodeHash:  arg.CodeHash,
				})
			}
			supply, _ := cmd.Flags().GetUint64("ownership-supply")
			reward, _ := cmd.Flags().GetUint64("pool-reward")
			return ledger.CreatePoolWithDrts(args[0], drts, supply, reward), nil
		})
	createPool.Flags().StringArray("drt", nil, `drt type, repeatable: "type=append,supply=5000,cost=100000000,github=URL,hash=HEX"`)
	createPool.Flags().Uint64("ownership-supply", 1_000_000, "ownership tokens minted to the owner")
	createPool.Flags().Uint64("pool-reward", 0, "ownership reward per append redemption, 0 for the ledger default")

	initMint := txCmd("init-mint POOL DRT_TYPE", "Create the mint of a DRT type", cobra.ExactArgs(2), poolTypeInstruction(ledger.InitializeDrtMint))
	mintSupply := txCmd("mint-supply POOL DRT_TYPE", "Mint the DRT supply into the pool vault", cobra.ExactArgs(2), poolTypeInstruction(ledger.MintDrtSupply))
	buy := txCmd("buy POOL DRT_TYPE", "Buy one DRT unit", cobra.ExactArgs(2), poolTypeInstruction(ledger.BuyDrt))
	redeem := txCmd("redeem POOL DRT_TYPE", "Redeem one DRT unit", cobra.ExactArgs(2), poolTypeInstruction(ledger.RedeemDrt))

	redeemFees := txCmd("redeem-fees POOL AMOUNT", "Burn ownership tokens for a share of the fee vault", cobra.ExactArgs(2),
		func(cmd *cobra.Command, args []string, a *app, _ solana.PublicKey) (ledger.Instruction, error) {
			pool, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return ledger.Instruction{}, fmt.Errorf("parse pool: %w", err)
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return ledger.Instruction{}, fmt.Errorf("parse amount: %w", err)
			}
			bump, _ := cmd.Flags().GetInt("fee-vault-bump")
			if bump < 0 {
				feeVault, err := a.ledger.Deriver().FeeVault(pool)
				if err != nil {
					return ledger.Instruction{}, err
				}
				bump = int(feeVault.Bump)
			}
			return ledger.RedeemFees(pool, amount, uint8(bump)), nil
		})
	redeemFees.Flags().Int("fee-vault-bump", -1, "fee vault bump, derived when negative")

	return []*cobra.Command{airdrop, createPool, initMint, mintSupply, buy, redeem, redeemFees}
}

type buildFunc func(cmd *cobra.Command, args []string, a *app, signer solana.PublicKey) (ledger.Instruction, error)

func poolTypeInstruction(build func(pool solana.PublicKey, drtType string) ledger.Instruction) buildFunc {
	return func(_ *cobra.Command, args []string, _ *app, _ solana.PublicKey) (ledger.Instruction, error) {
		pool, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return ledger.Instruction{}, fmt.Errorf("parse pool: %w", err)
		}
		return build(pool, args[1]), nil
	}
}

func txCmd(use, short string, args cobra.PositionalArgs, build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			key, err := a.signer()
			if err != nil {
				return err
			}
			ix, err := build(cmd, args, a, key.PublicKey())
			if err != nil {
				return err
			}
			tx, err := ledger.NewTransaction(ix, key, uint64(time.Now().UnixNano()))
			if err != nil {
				return err
			}
			receipt, err := a.ledger.Execute(cmd.Context(), tx)
			if err != nil {
				return err
			}
			return printJSON(cmd, receipt)
		},
	}
}
