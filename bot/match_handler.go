package bot

import (
	"context"
	"fmt"
	"time"

	"matchbook/models"
	"matchbook/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleMatchCommand routes /match subcommands
func (b *Bot) handleMatchCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	sub := options[0]
	switch sub.Name {
	case "create":
		b.handleMatchCreate(s, i, sub.Options)
	case "info":
		b.handleMatchInfo(s, i, sub.Options)
	case "update":
		b.handleMatchUpdate(s, i, sub.Options)
	case "end":
		b.handleMatchEnd(s, i, sub.Options)
	case "cancel":
		b.handleMatchCancel(s, i, sub.Options)
	}
}

func (b *Bot) handleMatchCreate(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	params := service.CreateMatchParams{}
	for _, opt := range options {
		switch opt.Name {
		case "league":
			params.LeagueID = opt.StringValue()
		case "home":
			params.HomeTeam = opt.StringValue()
		case "away":
			params.AwayTeam = opt.StringValue()
		case "home_odds":
			params.HomeOdds = opt.FloatValue()
		case "away_odds":
			params.AwayOdds = opt.FloatValue()
		case "draw_odds":
			v := opt.FloatValue()
			params.DrawOdds = &v
		case "kickoff":
			kickoff, err := time.Parse(time.RFC3339, opt.StringValue())
			if err != nil {
				b.respondWithError(s, i, "Kickoff must be an RFC 3339 time, e.g. 2026-09-01T18:30:00Z.")
				return
			}
			params.Kickoff = kickoff
		case "handicap":
			h, err := models.ParseHandicap(opt.StringValue())
			if err != nil {
				b.respondWithError(s, i, "The handicap must be a signed quarter-point line between -4.0 and +4.0, e.g. +0.5 or -1.25.")
				return
			}
			params.Handicap = &h
		case "venue":
			params.Venue = opt.StringValue()
		}
	}

	match, err := b.matchService.CreateMatch(ctx, params)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to create the match. Please try again.")
		return
	}

	// Post the match embed into the league channel and remember where it
	// landed so transitions can refresh it
	detail := &models.MatchDetail{Match: match}
	embed := buildMatchEmbed(s, i.GuildID, detail)
	components := buildBetButtons(match)

	msg, err := s.ChannelMessageSendComplex(formatID(match.ChannelID), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		log.Printf("Error posting match %s: %v", match.ID, err)
		b.respondWithError(s, i, "Match created, but posting the embed failed.")
		return
	}

	messageID, err := parseID(msg.ID)
	if err == nil {
		if err := b.matchService.SetMessageIDs(ctx, match.ID, match.ChannelID, messageID); err != nil {
			log.Printf("Error recording message IDs for match %s: %v", match.ID, err)
		}
	}

	b.respondEphemeral(s, i, fmt.Sprintf("Match **%s vs %s** posted in <#%s>.", match.HomeTeam, match.AwayTeam, formatID(match.ChannelID)))
}

func (b *Bot) handleMatchInfo(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	matchID := stringOption(options, "match")
	detail, err := b.matchService.GetMatchDetail(ctx, matchID)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to load the match. Please try again.")
		return
	}

	embed := buildMatchEmbed(s, i.GuildID, detail)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to match info: %v", err)
	}
}

func (b *Bot) handleMatchUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	matchID := stringOption(options, "match")
	params := service.UpdateMatchParams{}
	for _, opt := range options {
		switch opt.Name {
		case "home_odds":
			v := opt.FloatValue()
			params.HomeOdds = &v
		case "away_odds":
			v := opt.FloatValue()
			params.AwayOdds = &v
		case "draw_odds":
			v := opt.FloatValue()
			params.DrawOdds = &v
		case "lock":
			v := opt.BoolValue()
			params.BetsLocked = &v
		}
	}

	match, err := b.matchService.UpdateMatch(ctx, matchID, params)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to update the match. Please try again.")
		return
	}

	// Odds edits don't go through the event bus, refresh directly
	if err := b.refreshMatchMessage(ctx, matchID); err != nil {
		log.Printf("Error refreshing match message %s: %v", matchID, err)
	}

	b.respondEphemeral(s, i, fmt.Sprintf("Match **%s vs %s** updated.", match.HomeTeam, match.AwayTeam))
}

func (b *Bot) handleMatchEnd(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	matchID := stringOption(options, "match")
	homeScore := int(intOption(options, "home_score"))
	awayScore := int(intOption(options, "away_score"))

	if homeScore < 0 || awayScore < 0 {
		b.respondWithError(s, i, "Scores must not be negative.")
		return
	}

	result, err := b.settlementService.Settle(ctx, matchID, homeScore, awayScore)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to settle the match. Please try again.")
		return
	}

	failures := 0
	for _, u := range result.Updates {
		if u.Err != nil {
			failures++
		}
	}

	msg := fmt.Sprintf("Settled **%d - %d** (%s). %d bets processed, %d winners.",
		result.HomeScore, result.AwayScore, result.Outcome, len(result.Updates), result.WinnersCount())
	if failures > 0 {
		msg += fmt.Sprintf(" %d updates failed, check the logs.", failures)
	}
	b.respondEphemeral(s, i, msg)
}

func (b *Bot) handleMatchCancel(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	matchID := stringOption(options, "match")
	result, err := b.settlementService.Cancel(ctx, matchID)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to cancel the match. Please try again.")
		return
	}

	b.respondEphemeral(s, i, fmt.Sprintf("Match cancelled. Refunded %d bets (%s points).", result.Refunded, FormatPoints(result.Total)))
}

// respondEphemeral sends a plain ephemeral confirmation
func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error sending response: %v", err)
	}
}

// stringOption pulls a string option by name
func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// intOption pulls an integer option by name
func intOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	for _, opt := range options {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return 0
}
