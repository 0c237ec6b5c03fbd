package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heron-guild/guildhall/config"
	"github.com/heron-guild/guildhall/internal/application/command"
	"github.com/heron-guild/guildhall/internal/application/query"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Your profile, tier, privacy, keys and colony",
}

func init() {
	profileCmd.AddCommand(showCmd, tierCmd, privacyCmd, keysCmd, colonyCmd, recommendCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s := current.store.State()
		u := s.User
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), u)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s (%s)\n", u.Name, u.ID)
		fmt.Fprintf(w, "  tier:       %s\n", u.Tier)
		fmt.Fprintf(w, "  badges:     %d, %d mastered\n", len(u.Badges), len(u.MasteredBadges()))
		fmt.Fprintf(w, "  showcase:   %s\n", strings.Join(u.ShowcasedBadgeIDs, ", "))
		if u.ColonyID != "" {
			if c, ok := s.Colony(u.ColonyID); ok {
				fmt.Fprintf(w, "  colony:     %s (%s)\n", c.Name, c.Siege)
			}
		}
		fmt.Fprintf(w, "  storage:    %s, encrypted %s, auto-sync %s\n",
			u.Privacy.StorageLocation, yesNo(u.Privacy.IsEncrypted), yesNo(u.Privacy.AutoSync))
		if u.Security != nil {
			fmt.Fprintf(w, "  public key: %s (backed up %s)\n", u.Security.PublicKey, u.Security.LastBackup.Format("2006-01-02"))
		}
		if u.IsCouncil() {
			fmt.Fprintln(w, "  sits on the Council")
		}
		if !current.restored {
			fmt.Fprintln(w, "\nNo saved journal was found; this is a fresh one.")
		}
		return nil
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// TIER
// ══════════════════════════════════════════════════════════════════════════════

var tierTarget string

var tierCmd = &cobra.Command{
	Use:   "tier",
	Short: "Compare your journal with the prerequisites of a tier",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dto, err := current.assessment.Handle(cmd.Context(), query.GetTierAssessmentQuery{TargetTier: tierTarget})
		if err != nil {
			return explain(err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), dto)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s → %s: %d met, %d unmet, %d for the Council to judge\n\n",
			dto.Current, dto.Target, dto.Met, dto.Unmet, dto.ForReview)
		tw := newTable(w)
		for _, it := range dto.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Status, it.Item.ID, it.Item.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(dto.StatementsNeeded) > 0 {
			fmt.Fprintf(w, "\nAction statements expected for: %s\n", strings.Join(dto.StatementsNeeded, ", "))
		}
		if dto.AlreadyPending {
			fmt.Fprintln(w, "\nA promotion petition is already awaiting the Council.")
		} else if dto.LooksReady() {
			fmt.Fprintf(w, "\nReady to petition: guildhall council submit promotion %s\n", dto.Target)
		}
		return nil
	},
}

func init() {
	tierCmd.Flags().StringVar(&tierTarget, "target", "", "Target tier (default: the next one)")
	tierCmd.Long = "Compare your journal with the prerequisites of a tier.\n\nTiers: " + tierNames()
}

func tierNames() string {
	names := make([]string, 0, len(tier.Ordered))
	for _, t := range tier.Ordered {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIVACY AND KEYS
// ══════════════════════════════════════════════════════════════════════════════

var (
	privacyEncrypted bool
	privacyAutoSync  bool
)

var privacyCmd = &cobra.Command{
	Use:   "privacy <local|personal_cloud|guild_sync>",
	Short: "Choose where your journal is kept",
	Long: `Record where your journal should be kept. The storage this process writes
to is chosen by STORAGE_LOCATION; this preference travels with the journal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.UpdatePrivacyCommand{
			StorageLocation: args[0],
			Encrypted:       privacyEncrypted,
			AutoSync:        privacyAutoSync,
		})
		if err == nil && args[0] != current.cfg.Storage.Location && !jsonOutput {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: this process stores to %s; set STORAGE_LOCATION=%s to follow\n",
				current.cfg.Storage.Location, args[0])
		}
		return err
	},
}

func init() {
	privacyCmd.Flags().BoolVar(&privacyEncrypted, "encrypted", true, "Encrypt the journal at rest")
	privacyCmd.Flags().BoolVar(&privacyAutoSync, "auto-sync", false, "Synchronize automatically")
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate your sovereign key pair",
	Long: `Generate an ed25519 key pair. The public key is stored on your profile and
the private key is printed once; keep it somewhere safe.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !current.enabled(config.FeatureSovereignKeyBackups) {
			return errors.New("key backups are disabled (FEATURE_MEMBER_KEY_BACKUPS)")
		}
		res, err := current.keys.Handle(cmd.Context(), command.GenerateKeysCommand{})
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "public key:  %s\n", res.PublicKey)
		fmt.Fprintf(w, "private key: %s\n", res.PrivateKey)
		fmt.Fprintln(w, "\nThe private key is not stored. Write it down now.")
		return nil
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// COLONIES
// ══════════════════════════════════════════════════════════════════════════════

var colonyCmd = &cobra.Command{
	Use:   "colony",
	Short: "List, join, found and charter colonies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s := current.store.State()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), s.Colonies)
		}
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ID\tNO\tNAME\tSIEGE\tMEMBERS\tCHARTERED\tYOURS")
		for _, c := range s.Colonies {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
				c.ID, c.Number, c.Name, c.Siege, c.MembersCount, yesNo(c.IsApproved), yesNo(c.ID == s.User.ColonyID))
		}
		return tw.Flush()
	},
}

var colonyCharter string

var colonyJoinCmd = &cobra.Command{
	Use:   "join <colony-id>",
	Short: "Join a chartered colony",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.JoinColonyCommand{ColonyID: args[0]})
		return err
	},
}

var colonyProposeCmd = &cobra.Command{
	Use:   "propose <name> <siege>",
	Short: "Found a colony; it waits for a Council charter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.ProposeColonyCommand{Name: args[0], Siege: args[1], Charter: colonyCharter})
		return err
	},
}

var colonyApproveCmd = &cobra.Command{
	Use:   "approve <colony-id>",
	Short: "Charter a proposed colony",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCouncil(); err != nil {
			return err
		}
		_, err := run(cmd, command.ApproveColonyCommand{ColonyID: args[0]})
		return err
	},
}

func init() {
	colonyProposeCmd.Flags().StringVar(&colonyCharter, "charter", "", "What the colony stands for")
	colonyCmd.AddCommand(colonyJoinCmd, colonyProposeCmd, colonyApproveCmd)
}

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE
// ══════════════════════════════════════════════════════════════════════════════

var recommendCmd = &cobra.Command{
	Use:   "recommend [interest...]",
	Short: "Ask the Oracle which badge to pursue next",
	RunE: func(cmd *cobra.Command, args []string) error {
		dto := current.guidance.RecommendNext(cmd.Context(), query.RecommendNextQuery{Interests: args})
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), dto)
		}
		fmt.Fprintln(cmd.OutOrStdout(), dto.Text)
		return nil
	},
}
