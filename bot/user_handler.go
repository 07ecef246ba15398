package bot

import (
	"context"
	"fmt"

	"matchbook/models"
	"matchbook/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleUserCommand routes /user subcommands
func (b *Bot) handleUserCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	sub := options[0]
	switch sub.Name {
	case "stats":
		b.handleUserStats(s, i, sub.Options)
	case "points":
		if len(sub.Options) == 0 {
			return
		}
		b.handleUserPoints(s, i, sub.Options[0])
	}
}

func (b *Bot) handleUserStats(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	// Default to the caller
	targetID := i.Member.User.ID
	for _, opt := range options {
		if opt.Name == "user" {
			if u := opt.UserValue(s); u != nil {
				targetID = u.ID
			}
		}
	}

	discordID, err := parseID(targetID)
	if err != nil {
		log.Printf("Error parsing Discord ID %s: %v", targetID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	user, err := b.userService.GetUser(ctx, discordID)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to load stats. Please try again.")
		return
	}

	displayName := GetDisplayName(s, i.GuildID, targetID)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{buildUserStatsEmbed(displayName, user)},
		},
	})
	if err != nil {
		log.Printf("Error responding to user stats: %v", err)
	}
}

func (b *Bot) handleUserPoints(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	var targetUser *discordgo.User
	var amount int64
	for _, opt := range sub.Options {
		switch opt.Name {
		case "user":
			targetUser = opt.UserValue(s)
		case "amount":
			amount = opt.IntValue()
		}
	}

	if targetUser == nil {
		b.respondWithError(s, i, "Invalid user.")
		return
	}
	discordID, err := parseID(targetUser.ID)
	if err != nil {
		b.respondWithError(s, i, "Invalid user.")
		return
	}

	// Ensure the account exists so admins can seed balances up front
	if _, err := b.userService.GetOrCreateUser(ctx, discordID, targetUser.Username); err != nil {
		log.Printf("Error ensuring user %d exists: %v", discordID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var user *models.User
	switch sub.Name {
	case "add":
		user, err = b.userService.AddPoints(ctx, discordID, amount)
	case "remove":
		user, err = b.userService.RemovePoints(ctx, discordID, amount)
	case "set":
		user, err = b.userService.SetPoints(ctx, discordID, amount)
	default:
		return
	}
	if err != nil {
		b.respondRejection(s, i, err, "Unable to adjust points. Please try again.")
		return
	}

	displayName := GetDisplayName(s, i.GuildID, targetUser.ID)
	b.respondEphemeral(s, i, fmt.Sprintf("**%s** now has **%s points**.", displayName, FormatPoints(user.Points)))
}

// handleLeaderboard shows one page of the ranking
func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	period := service.PeriodAllTime
	page := 1
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "period":
			period = service.LeaderboardPeriod(opt.StringValue())
		case "page":
			page = int(opt.IntValue())
		}
	}

	result, err := b.userService.Leaderboard(ctx, period, page)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to load the leaderboard. Please try again.")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{buildLeaderboardEmbed(result, s, i.GuildID)},
		},
	})
	if err != nil {
		log.Printf("Error responding to leaderboard: %v", err)
	}
}
