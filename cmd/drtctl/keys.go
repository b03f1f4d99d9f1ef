package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"drtManager/internal/config"
	"drtManager/internal/ledger"
	"drtManager/internal/pda"
)

func keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signer keypair file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(cfg.Keypair); err == nil && !force {
				return fmt.Errorf("keypair %s exists, use --force to overwrite", cfg.Keypair)
			}

			key, err := solana.NewRandomPrivateKey()
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			if err := writeKeygenFile(cfg.Keypair, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.PublicKey())
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing keypair file")
	return cmd
}

// writeKeygenFile stores key as a JSON byte array, the solana-keygen format.
func writeKeygenFile(path string, key solana.PrivateKey) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create keypair dir: %w", err)
		}
	}
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("marshal keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write keypair: %w", err)
	}
	return nil
}

func addressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the signer address and the derived addresses of a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			programID := ledger.DefaultProgramID
			if cfg.ProgramID != "" {
				if programID, err = solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
					return fmt.Errorf("parse program id: %w", err)
				}
			}

			owner, _ := cmd.Flags().GetString("owner")
			var ownerKey solana.PublicKey
			if owner != "" {
				if ownerKey, err = solana.PublicKeyFromBase58(owner); err != nil {
					return fmt.Errorf("parse owner: %w", err)
				}
			} else {
				key, err := solana.PrivateKeyFromSolanaKeygenFile(cfg.Keypair)
				if err != nil {
					return fmt.Errorf("load keypair %s: %w", cfg.Keypair, err)
				}
				ownerKey = key.PublicKey()
			}

			out := map[string]interface{}{"signer": ownerKey}
			name, _ := cmd.Flags().GetString("name")
			if name != "" {
				d := pda.NewDeriver(programID)
				pool, err := d.Pool(ownerKey, name)
				if err != nil {
					return err
				}
				vault, err := d.Vault(pool.Key)
				if err != nil {
					return err
				}
				feeVault, err := d.FeeVault(pool.Key)
				if err != nil {
					return err
				}
				ownership, err := d.OwnershipMint(pool.Key)
				if err != nil {
					return err
				}
				out["pool"] = pool
				out["vault"] = vault
				out["fee_vault"] = feeVault
				out["ownership_mint"] = ownership

				drts, _ := cmd.Flags().GetStringSlice("drt-type")
				mints := make(map[string]pda.Address, len(drts))
				for _, t := range drts {
					mint, err := d.DrtMint(pool.Key, t)
					if err != nil {
						return err
					}
					mints[t] = mint
				}
				if len(mints) > 0 {
					out["drt_mints"] = mints
				}
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().String("owner", "", "pool owner, defaults to the keypair signer")
	cmd.Flags().String("name", "", "pool name")
	cmd.Flags().StringSlice("drt-type", nil, "drt types to derive mints for")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
