package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heron-guild/guildhall/internal/application/command"
	"github.com/heron-guild/guildhall/internal/application/query"
	"github.com/heron-guild/guildhall/internal/domain/badge"
)

var badgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Work on the badges in your journal",
}

func init() {
	badgeCmd.AddCommand(journalCmd, downloadCmd, createCmd, evidenceCmd, revokeCmd,
		reflectCmd, showcaseCmd, draftCmd, suggestCmd, rateCmd)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL
// ══════════════════════════════════════════════════════════════════════════════

var (
	journalFilter string
	journalDomain string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List your badges and the official library",
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&journalFilter, "filter", "", "Only show inProgress or mastered badges")
	journalCmd.Flags().StringVar(&journalDomain, "domain", "", "Only show badges tagged with this domain")
}

func runJournal(cmd *cobra.Command, _ []string) error {
	q := query.GetJournalQuery{Filter: query.JournalFilter(journalFilter)}
	if journalDomain != "" {
		d, ok := badge.ParseDomain(journalDomain)
		if !ok {
			return fmt.Errorf("unknown domain %q", journalDomain)
		}
		q.Domain = d
	}

	dto, err := current.journal.Handle(cmd.Context(), q)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), dto)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s, %s\n\n", dto.UserName, dto.Tier)

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tDOMAIN\tPROGRESS\tSTATE\tVERIFIED\tSHOWCASED")
	for _, group := range [][]query.BadgeView{dto.InProgress, dto.Mastered} {
		for _, b := range group {
			state := string(b.State)
			if b.PendingVerification {
				state += " (under review)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\t%s\n",
				b.ID, b.Title, b.Domain, b.Completed, b.Total, state, yesNo(b.IsVerified), yesNo(b.IsShowcased))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nLibrary")
	tw = newTable(w)
	for _, e := range dto.Library {
		title := e.Title
		if e.IsPartnership {
			title += " (with " + e.PartnerName + ")"
		}
		owned := ""
		if e.Owned {
			owned = "in journal"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.ID, title, e.Domain, e.Difficulty, owned)
	}
	return tw.Flush()
}

// ══════════════════════════════════════════════════════════════════════════════
// EDITING
// ══════════════════════════════════════════════════════════════════════════════

var downloadCmd = &cobra.Command{
	Use:   "download <library-badge-id>",
	Short: "Copy a badge from the official library into your journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.DownloadBadgeCommand{BadgeID: args[0]})
		return err
	},
}

var (
	evidenceURL  string
	evidenceNote string
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence <badge-id> <requirement-id>",
	Short: "Record an attachment and/or a note against a requirement",
	Long: `Record evidence for one requirement. Flags that are not given keep what is
already recorded; pass an empty value to clear a field.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := command.RecordEvidenceCommand{BadgeID: args[0], RequirementID: args[1]}
		if cmd.Flags().Changed("url") {
			c.URL = &evidenceURL
		}
		if cmd.Flags().Changed("note") {
			c.Note = &evidenceNote
		}
		if c.URL == nil && c.Note == nil {
			return fmt.Errorf("give --url, --note or both")
		}
		_, err := run(cmd, c)
		return err
	},
}

func init() {
	evidenceCmd.Flags().StringVar(&evidenceURL, "url", "", "Reference to an uploaded attachment")
	evidenceCmd.Flags().StringVar(&evidenceNote, "note", "", "Written note")
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <badge-id> <requirement-id>",
	Short: "Clear the evidence recorded against a requirement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.RevokeRequirementCommand{BadgeID: args[0], RequirementID: args[1]})
		return err
	},
}

var reflectCmd = &cobra.Command{
	Use:   "reflect <badge-id> <text>",
	Short: "Replace the reflection written for a badge",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		_, err := run(cmd, command.UpdateReflectionCommand{BadgeID: args[0], Text: text})
		return err
	},
}

var showcaseCmd = &cobra.Command{
	Use:   "showcase <badge-id>",
	Short: "Add a mastered badge to your showcase, or take it out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := run(cmd, command.ToggleShowcaseCommand{BadgeID: args[0]})
		return err
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHORING
// ══════════════════════════════════════════════════════════════════════════════

// draftFlags describes a badge on the command line or in a JSON file.
type draftFlags struct {
	file         string
	title        string
	description  string
	domain       string
	secondary    []string
	difficulty   int
	requirements []string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "from", "", "Read the draft from a JSON file")
	cmd.Flags().StringVar(&f.title, "title", "", "Badge title")
	cmd.Flags().StringVar(&f.description, "description", "", "Badge description")
	cmd.Flags().StringVar(&f.domain, "domain", string(badge.DomainSkill), "Primary domain")
	cmd.Flags().StringSliceVar(&f.secondary, "also", nil, "Secondary domains")
	cmd.Flags().IntVar(&f.difficulty, "difficulty", int(badge.DefaultDifficulty), "Difficulty from 1 to 5")
	cmd.Flags().StringArrayVar(&f.requirements, "requirement", nil, "A requirement; repeat for more")
}

func (f *draftFlags) draft() (badge.Draft, error) {
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return badge.Draft{}, err
		}
		var d badge.Draft
		if err := json.Unmarshal(data, &d); err != nil {
			return badge.Draft{}, fmt.Errorf("%s: %w", f.file, err)
		}
		return d, nil
	}

	domain, ok := badge.ParseDomain(f.domain)
	if !ok {
		return badge.Draft{}, fmt.Errorf("unknown domain %q", f.domain)
	}
	var secondary []badge.Domain
	for _, s := range f.secondary {
		d, ok := badge.ParseDomain(s)
		if !ok {
			return badge.Draft{}, fmt.Errorf("unknown domain %q", s)
		}
		secondary = append(secondary, d)
	}
	return badge.DraftFromTexts(f.title, f.description, domain, secondary, badge.Difficulty(f.difficulty), f.requirements), nil
}

var createFlags draftFlags

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Write your own badge into your journal",
	Example: `  guildhall badge create --title "Knots" --domain Skill --difficulty 2 \
    --requirement "Tie a bowline blindfolded" --requirement "Teach someone else"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := createFlags.draft()
		if err != nil {
			return err
		}
		_, err = run(cmd, command.CreateBadgeCommand{Draft: d, Origin: badge.OriginManual})
		return err
	},
}

func init() {
	createFlags.register(createCmd)
}

var (
	draftGoal string
	draftSave bool
)

var draftCmd = &cobra.Command{
	Use:   "draft <topic>",
	Short: "Ask the Oracle to draft a badge",
	Long: `Ask the Oracle to draft a badge about a topic. When the Oracle is silent a
placeholder draft is returned instead. With --save the draft is written into
your journal as your own badge.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDraft,
}

func init() {
	draftCmd.Flags().StringVar(&draftGoal, "goal", "", "What the badge should help you achieve")
	draftCmd.Flags().BoolVar(&draftSave, "save", false, "Create the drafted badge in your journal")
}

func runDraft(cmd *cobra.Command, args []string) error {
	res, err := current.drafts.Handle(cmd.Context(), command.DraftBadgeCommand{
		Topic: strings.Join(args, " "),
		Goal:  draftGoal,
	})
	if err != nil {
		return explain(err)
	}

	w := cmd.OutOrStdout()
	if jsonOutput && !draftSave {
		return writeJSON(w, res)
	}
	if !jsonOutput {
		if res.Fallback {
			fmt.Fprintf(w, "The Oracle is silent (%s); here is a placeholder.\n\n", res.Reason)
		}
		printDraft(cmd, res.Draft)
	}
	if !draftSave {
		return nil
	}

	origin := badge.OriginOracle
	if res.Fallback {
		origin = badge.OriginManual
	}
	_, err = run(cmd, command.CreateBadgeCommand{Draft: res.Draft, Origin: origin})
	return err
}

func printDraft(cmd *cobra.Command, d badge.Draft) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s  [%s, difficulty %d]\n", d.Title, d.Domain, d.Difficulty)
	if d.Description != "" {
		fmt.Fprintf(w, "  %s\n", d.Description)
	}
	for i, r := range d.Requirements {
		fmt.Fprintf(w, "  %d. %s\n", i+1, r.Description)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE
// ══════════════════════════════════════════════════════════════════════════════

var suggestCmd = &cobra.Command{
	Use:   "suggest <badge-id>",
	Short: "Ask the Oracle for one more requirement for a badge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dto, err := current.guidance.SuggestRequirement(cmd.Context(), query.SuggestRequirementQuery{BadgeID: args[0]})
		if err != nil {
			return explain(err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), dto)
		}
		fmt.Fprintln(cmd.OutOrStdout(), dto.Text)
		return nil
	},
}

var rateFlags draftFlags

var rateCmd = &cobra.Command{
	Use:   "rate [badge-id]",
	Short: "Ask the Oracle how demanding a badge is",
	Long: `Rate a badge from your journal by id, or a draft described with flags.
The rating is advisory and runs from 1 to 5.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var d badge.Draft
		if len(args) == 1 {
			s := current.store.State()
			b, err := s.User.Badge(args[0])
			if err != nil {
				return explain(err)
			}
			d = draftOf(*b)
		} else {
			var err error
			if d, err = rateFlags.draft(); err != nil {
				return err
			}
		}

		dto := current.guidance.RateComplexity(cmd.Context(), query.RateComplexityQuery{Draft: d})
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), dto)
		}
		note := ""
		if dto.Fallback {
			note = " (the Oracle is silent; default rating)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d/5%s\n", dto.Rating, note)
		return nil
	},
}

func init() {
	rateFlags.register(rateCmd)
}

func draftOf(b badge.Badge) badge.Draft {
	texts := make([]string, 0, len(b.Requirements))
	for _, r := range b.Requirements {
		texts = append(texts, r.Description)
	}
	return badge.DraftFromTexts(b.Title, b.Description, b.Domain, b.SecondaryDomains, b.Difficulty, texts)
}
