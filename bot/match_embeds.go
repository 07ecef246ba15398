package bot

import (
	"fmt"
	"strings"
	"time"

	"matchbook/models"
	"matchbook/service"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

// buildMatchEmbed renders a match entirely from stored state. It is used
// both when posting and whenever a transition requires a refresh, so stale
// partial edits cannot accumulate.
func buildMatchEmbed(s *discordgo.Session, guildID string, detail *models.MatchDetail) *discordgo.MessageEmbed {
	match := detail.Match

	title := fmt.Sprintf("%s vs %s", match.HomeTeam, match.AwayTeam)
	if h := match.Handicap(); h != nil {
		side := match.HomeTeam
		if !h.IsHome() {
			side = match.AwayTeam
		}
		title = fmt.Sprintf("%s (%s %s)", title, side, string(*h))
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Odds",
			Value:  formatOdds(match),
			Inline: true,
		},
		{
			Name:   "Kickoff",
			Value:  FormatDiscordTimestamp(match.KickoffTime, "f"),
			Inline: true,
		},
	}

	if match.Venue != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Venue",
			Value:  match.Venue,
			Inline: true,
		})
	}

	if len(detail.Bets) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("Bets (%d)", len(detail.Bets)),
			Value:  formatBetLines(s, guildID, match, detail.Bets),
			Inline: false,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:  title,
		Color:  ColorPrimary,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{Text: matchStatusLine(match)},
	}

	switch {
	case match.IsAborted:
		embed.Color = ColorDanger
	case match.IsCompleted:
		embed.Color = ColorSuccess
		embed.Description = fmt.Sprintf("Final score: **%d - %d**", derefInt(match.HomeScore), derefInt(match.AwayScore))
	case match.BetsLocked || match.IsStarted:
		embed.Color = ColorWarning
	}

	return embed
}

func formatOdds(match *models.Match) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "1: **%.2f**", match.HomeOdds)
	if match.DrawOdds != nil {
		fmt.Fprintf(&sb, " | X: **%.2f**", *match.DrawOdds)
	}
	fmt.Fprintf(&sb, " | 2: **%.2f**", match.AwayOdds)
	return sb.String()
}

func formatBetLines(s *discordgo.Session, guildID string, match *models.Match, bets []*models.Bet) string {
	var sb strings.Builder
	for idx, bet := range bets {
		if idx == 15 {
			fmt.Fprintf(&sb, "… and %d more", len(bets)-idx)
			break
		}
		name := GetDisplayNameInt64(s, guildID, bet.UserID)
		fmt.Fprintf(&sb, "%s — %s on **%s**\n", name, FormatPoints(bet.Stake), selectionLabel(match, bet.Selection))
	}
	return sb.String()
}

func selectionLabel(match *models.Match, selection models.Outcome) string {
	switch selection {
	case models.OutcomeHome:
		return match.HomeTeam
	case models.OutcomeAway:
		return match.AwayTeam
	default:
		return "Draw"
	}
}

func matchStatusLine(match *models.Match) string {
	switch {
	case match.IsAborted:
		return "Cancelled — all stakes refunded"
	case match.IsCompleted:
		return "Settled"
	case match.BetsLocked:
		return "Betting locked"
	case match.IsStarted || match.KickoffPassed(time.Now()):
		return "Kicked off — betting closed"
	default:
		return "Betting open until kickoff"
	}
}

// buildBetButtons returns the bet row; buttons are disabled as soon as the
// match no longer accepts bets
func buildBetButtons(match *models.Match) []discordgo.MessageComponent {
	disabled := !match.AcceptingBets(time.Now())

	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    match.HomeTeam,
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("bet_home:%s", match.ID),
			Disabled: disabled,
		},
	}
	if match.DrawOdds != nil {
		buttons = append(buttons, discordgo.Button{
			Label:    "Draw",
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("bet_draw:%s", match.ID),
			Disabled: disabled,
		})
	}
	buttons = append(buttons, discordgo.Button{
		Label:    match.AwayTeam,
		Style:    discordgo.PrimaryButton,
		CustomID: fmt.Sprintf("bet_away:%s", match.ID),
		Disabled: disabled,
	})

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: buttons},
	}
}

// buildStakeModal asks for a stake in extended mode
func buildStakeModal(matchID string, selection models.Outcome, balance int64) discordgo.InteractionResponseData {
	return discordgo.InteractionResponseData{
		CustomID: fmt.Sprintf("bet_stake_modal:%s:%s", matchID, selection),
		Title:    "Place your bet",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "stake",
						Label:       fmt.Sprintf("Stake (you have %s points)", FormatPoints(balance)),
						Style:       discordgo.TextInputShort,
						Placeholder: "100",
						Required:    true,
						MaxLength:   10,
					},
				},
			},
		},
	}
}

// buildLeagueEmbed renders a league summary
func buildLeagueEmbed(league *models.League) *discordgo.MessageEmbed {
	status := "Running"
	if league.IsCompleted {
		status = "Ended"
	}
	return &discordgo.MessageEmbed{
		Title:       league.Name,
		Description: league.Description,
		Color:       ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", formatID(league.ChannelID)), Inline: true},
			{Name: "Start", Value: FormatDiscordTimestamp(league.StartDate, "d"), Inline: true},
			{Name: "End", Value: FormatDiscordTimestamp(league.EndDate, "d"), Inline: true},
			{Name: "Status", Value: status, Inline: true},
		},
	}
}

// buildUserStatsEmbed renders a user's betting statistics
func buildUserStatsEmbed(displayName string, user *models.User) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Stats for %s", displayName),
		Color: ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Points", Value: FormatPoints(user.Points), Inline: true},
			{Name: "Bets", Value: fmt.Sprintf("%d placed / %d withdrawn", user.BetsPlaced, user.BetsWithdrawn), Inline: true},
			{Name: "Record", Value: fmt.Sprintf("%d correct / %d incorrect", user.BetsCorrect, user.BetsIncorrect), Inline: true},
			{Name: "Profit / Loss", Value: fmt.Sprintf("+%s / -%s", FormatPoints(user.Profits), FormatPoints(user.Loss)), Inline: true},
			{Name: "Streaks", Value: fmt.Sprintf("W %d (best %d) / L %d (worst %d)", user.WinStreakCurrent, user.WinStreakMax, user.LooseStreakCurrent, user.LooseStreakMax), Inline: true},
			{Name: "ROI", Value: fmt.Sprintf("%.1f%% overall | %.1f%% 1x2 | %.1f%% AH", user.ROI, user.ROI1x2, user.ROIAsianHandicap), Inline: true},
		},
	}
}

// buildLeaderboardEmbed renders one page of the ranking
func buildLeaderboardEmbed(page *service.LeaderboardPage, s *discordgo.Session, guildID string) *discordgo.MessageEmbed {
	var sb strings.Builder
	rank := (page.Page-1)*10 + 1
	for i, user := range page.Entries {
		name := GetDisplayNameInt64(s, guildID, user.DiscordID)
		fmt.Fprintf(&sb, "**%d.** %s — %s points\n", rank+i, name, FormatPoints(user.Points))
	}
	if sb.Len() == 0 {
		sb.WriteString("No one on this page.")
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Leaderboard (%s)", page.Period),
		Description: sb.String(),
		Color:       ColorPrimary,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d of %d — %d players", page.Page, page.TotalPages, page.TotalUsers),
		},
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
