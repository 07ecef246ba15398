package bot

import (
	"context"
	"fmt"
	"time"

	"matchbook/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const leagueDateLayout = "2006-01-02"

// handleLeagueCommand routes /league subcommands
func (b *Bot) handleLeagueCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	sub := options[0]
	switch sub.Name {
	case "add":
		b.handleLeagueAdd(s, i, sub.Options)
	case "info":
		b.handleLeagueInfo(s, i, sub.Options)
	case "update":
		b.handleLeagueUpdate(s, i, sub.Options)
	case "end":
		b.handleLeagueEnd(s, i, sub.Options)
	}
}

func (b *Bot) handleLeagueAdd(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	params := service.LeagueParams{}
	for _, opt := range options {
		switch opt.Name {
		case "name":
			params.Name = opt.StringValue()
		case "description":
			params.Description = opt.StringValue()
		case "channel":
			channel := opt.ChannelValue(s)
			if channel == nil {
				b.respondWithError(s, i, "Invalid channel.")
				return
			}
			channelID, err := parseID(channel.ID)
			if err != nil {
				b.respondWithError(s, i, "Invalid channel.")
				return
			}
			params.ChannelID = channelID
		case "start":
			start, err := time.Parse(leagueDateLayout, opt.StringValue())
			if err != nil {
				b.respondWithError(s, i, "Start date must look like 2026-08-01.")
				return
			}
			params.StartDate = start
		case "end":
			end, err := time.Parse(leagueDateLayout, opt.StringValue())
			if err != nil {
				b.respondWithError(s, i, "End date must look like 2026-12-20.")
				return
			}
			params.EndDate = end
		}
	}

	if params.EndDate.Before(params.StartDate) {
		b.respondWithError(s, i, "The end date must not be before the start date.")
		return
	}

	league, err := b.leagueService.AddLeague(ctx, params)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to create the league. Please try again.")
		return
	}

	b.respondEphemeral(s, i, fmt.Sprintf("League **%s** created in <#%s>.", league.Name, formatID(league.ChannelID)))
}

func (b *Bot) handleLeagueInfo(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	leagueID := stringOption(options, "league")
	league, err := b.leagueService.GetLeague(ctx, leagueID)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to load the league. Please try again.")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{buildLeagueEmbed(league)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to league info: %v", err)
	}
}

func (b *Bot) handleLeagueUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	leagueID := stringOption(options, "league")
	params := service.UpdateLeagueParams{}
	for _, opt := range options {
		switch opt.Name {
		case "name":
			v := opt.StringValue()
			params.Name = &v
		case "description":
			v := opt.StringValue()
			params.Description = &v
		case "channel":
			channel := opt.ChannelValue(s)
			if channel == nil {
				b.respondWithError(s, i, "Invalid channel.")
				return
			}
			channelID, err := parseID(channel.ID)
			if err != nil {
				b.respondWithError(s, i, "Invalid channel.")
				return
			}
			params.ChannelID = &channelID
		case "start":
			start, err := time.Parse(leagueDateLayout, opt.StringValue())
			if err != nil {
				b.respondWithError(s, i, "Start date must look like 2026-08-01.")
				return
			}
			params.StartDate = &start
		case "end":
			end, err := time.Parse(leagueDateLayout, opt.StringValue())
			if err != nil {
				b.respondWithError(s, i, "End date must look like 2026-12-20.")
				return
			}
			params.EndDate = &end
		}
	}

	league, err := b.leagueService.UpdateLeague(ctx, leagueID, params)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to update the league. Please try again.")
		return
	}

	b.respondEphemeral(s, i, fmt.Sprintf("League **%s** updated.", league.Name))
}

func (b *Bot) handleLeagueEnd(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	leagueID := stringOption(options, "league")
	if err := b.leagueService.EndLeague(ctx, leagueID); err != nil {
		b.respondRejection(s, i, err, "Unable to end the league. Please try again.")
		return
	}

	b.respondEphemeral(s, i, "League ended. The channel is free for a new one.")
}
