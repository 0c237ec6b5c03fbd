package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heron-guild/guildhall/internal/application/command"
	"github.com/heron-guild/guildhall/internal/application/query"
	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/council"
)

var councilCmd = &cobra.Command{
	Use:   "council",
	Short: "Petition the Council and, as a Council member, decide petitions",
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Put a request before the Council",
}

func init() {
	submitCmd.AddCommand(submitVerificationCmd, submitProposalCmd, submitPromotionCmd,
		submitLinkCmd, submitPartnershipCmd, submitPhysicalCmd)
	councilCmd.AddCommand(submitCmd, queueCmd, resolveCmd, decisionsCmd)
}

// errNotCouncil is returned when a member without the Council role tries to decide.
var errNotCouncil = errors.New("only Council members may do this; set GUILD_COUNCIL_ROLE=true")

func requireCouncil() error {
	if !current.store.State().User.IsCouncil() {
		return errNotCouncil
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

var submitVerificationCmd = &cobra.Command{
	Use:   "verification <badge-id>",
	Short: "Ask the Council to verify a mastered badge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.SubmitVerificationCommand{BadgeID: args[0]})
		return err
	},
}

var (
	proposalFlags   draftFlags
	proposalGoal    string
	proposalMetrics string
	proposalOracle  bool
)

var submitProposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Propose a badge for the official library",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := proposalFlags.draft()
		if err != nil {
			return err
		}
		origin := badge.OriginManual
		if proposalOracle {
			origin = badge.OriginOracle
		}
		_, err = run(cmd, command.SubmitProposalCommand{
			Draft:   d,
			Origin:  origin,
			Goal:    proposalGoal,
			Metrics: proposalMetrics,
		})
		return err
	},
}

func init() {
	proposalFlags.register(submitProposalCmd)
	submitProposalCmd.Flags().StringVar(&proposalGoal, "goal", "", "What the badge is for")
	submitProposalCmd.Flags().StringVar(&proposalMetrics, "metrics", "", "How mastery is measured")
	submitProposalCmd.Flags().BoolVar(&proposalOracle, "oracle-drafted", false, "Mark the draft as written by the Oracle")
}

var (
	promotionSupport        []string
	promotionStatements     []string
	promotionStatementsFile string
)

var submitPromotionCmd = &cobra.Command{
	Use:   "promotion <target-tier>",
	Short: "Petition for a higher tier",
	Long: `Petition for a higher tier. Prerequisites are listed by "profile tier" but
are not enforced: the Council judges the petition.

Action statements can be given inline as requirement-id=intent, or in full
from a JSON file holding a list of statements.`,
	Example: `  guildhall council submit promotion Wayfarer --support b1 \
    --statement wayfarer-service="Run the winter food drive"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statements, err := readStatements()
		if err != nil {
			return err
		}
		_, err = run(cmd, command.SubmitPromotionCommand{
			TargetTier:         args[0],
			SupportingBadgeIDs: promotionSupport,
			Statements:         statements,
		})
		return err
	},
}

func init() {
	submitPromotionCmd.Flags().StringSliceVar(&promotionSupport, "support", nil, "Supporting badge ids")
	submitPromotionCmd.Flags().StringArrayVar(&promotionStatements, "statement", nil, "requirement-id=intent; repeat for more")
	submitPromotionCmd.Flags().StringVar(&promotionStatementsFile, "statements-file", "", "JSON file with action statements")
}

func readStatements() ([]council.ActionStatement, error) {
	var out []council.ActionStatement
	if promotionStatementsFile != "" {
		data, err := os.ReadFile(promotionStatementsFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("%s: %w", promotionStatementsFile, err)
		}
	}
	for _, s := range promotionStatements {
		id, intent, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("statement %q: want requirement-id=intent", s)
		}
		out = append(out, council.ActionStatement{RequirementID: strings.TrimSpace(id), Intent: strings.TrimSpace(intent)})
	}
	return out, nil
}

var submitLinkCmd = &cobra.Command{
	Use:   "link <badge-id> <label> <url>",
	Short: "Suggest a useful link for a library badge",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.SubmitLinkSuggestionCommand{BadgeID: args[0], Label: args[1], URL: args[2]})
		return err
	},
}

var (
	partnerType        string
	partnerDescription string
	partnerWebsite     string
)

var submitPartnershipCmd = &cobra.Command{
	Use:   "partnership <partner-name>",
	Short: "Propose a collaboration with an organization, creator or institution",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.SubmitPartnershipCommand{
			PartnerName: strings.Join(args, " "),
			PartnerType: partnerType,
			Description: partnerDescription,
			WebsiteURL:  partnerWebsite,
		})
		return err
	},
}

func init() {
	submitPartnershipCmd.Flags().StringVar(&partnerType, "type", string(council.PartnerOrganization), "Organization, Creator or Institution")
	submitPartnershipCmd.Flags().StringVar(&partnerDescription, "description", "", "What the partnership would offer")
	submitPartnershipCmd.Flags().StringVar(&partnerWebsite, "website", "", "Partner website")
}

var submitPhysicalCmd = &cobra.Command{
	Use:   "physical <badge-id>",
	Short: "Request a physical artifact of a mastered badge",
	Long: `Request a physical artifact of a mastered badge. The first artifact of each
badge is free; later ones are charged the artifact fee.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.SubmitPhysicalCommand{BadgeID: args[0]})
		return err
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW
// ══════════════════════════════════════════════════════════════════════════════

var (
	queueKind string
	queueAll  bool
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List requests awaiting the Council, oldest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dto, err := current.queue.Handle(cmd.Context(), query.GetCouncilQueueQuery{
			Kind:            council.Kind(queueKind),
			IncludeResolved: queueAll,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), dto)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%d pending, access fund %s\n\n", dto.Pending, dto.AccessFundBalance)
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tKIND\tFROM\tSUBMITTED\tSTATUS\tSUMMARY")
		for _, it := range dto.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				it.ID, it.Kind, it.SubmitterName, it.SubmittedAt.Format("2006-01-02 15:04"), it.Status, truncate(it.Summary, 60))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(dto.PendingColonies) > 0 {
			fmt.Fprintf(w, "\nColonies awaiting a charter: %s\n", strings.Join(dto.PendingColonies, ", "))
		}
		return nil
	},
}

func init() {
	queueCmd.Flags().StringVar(&queueKind, "kind", "", "Only one kind: verification, proposal, promotion, link, partnership, physical")
	queueCmd.Flags().BoolVar(&queueAll, "all", false, "Include decided requests")
}

var (
	resolveKind     string
	resolveFeedback string
	resolvePartner  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <request-id> <approved|rejected|needs_info>",
	Short: "Decide a pending request",
	Long: `Decide a pending request. Approving a proposal mints it into the library;
with --partner the minted badge is marked as a partnership badge.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCouncil(); err != nil {
			return err
		}
		_, err := run(cmd, command.ResolveRequestCommand{
			Kind:           resolveKind,
			RequestID:      args[0],
			Status:         args[1],
			Feedback:       resolveFeedback,
			AsPartnerBadge: resolvePartner != "",
			PartnerName:    resolvePartner,
		})
		return err
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveKind, "kind", "", "Request kind, when ids may collide")
	resolveCmd.Flags().StringVarP(&resolveFeedback, "feedback", "m", "", "Feedback for the submitter")
	resolveCmd.Flags().StringVar(&resolvePartner, "partner", "", "Mint an approved proposal as a partnership badge with this partner")
}

var (
	decisionsLimit int
	decisionsMine  bool
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Show recent Council decisions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			ds  []council.Decision
			err error
		)
		if decisionsMine {
			ds = current.decisions.ForSubmitter(current.cfg.Guild.UserID)
			if decisionsLimit > 0 && len(ds) > decisionsLimit {
				ds = ds[:decisionsLimit]
			}
		} else {
			ds, err = current.decisionsQ.Handle(cmd.Context(), query.GetDecisionsQuery{Limit: decisionsLimit})
			if err != nil {
				return err
			}
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"decisions": ds,
				"stats":     current.decisions.Stats(),
			})
		}

		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "DECIDED\tREQUEST\tKIND\tSTATUS\tFEEDBACK")
		for _, d := range ds {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				d.DecidedAt.Format("2006-01-02 15:04"), d.RequestID, d.Kind, d.Status, truncate(d.Feedback, 50))
		}
		return tw.Flush()
	},
}

func init() {
	decisionsCmd.Flags().IntVarP(&decisionsLimit, "limit", "n", 20, "How many decisions to show")
	decisionsCmd.Flags().BoolVar(&decisionsMine, "mine", false, "Only decisions on your own requests")
}
