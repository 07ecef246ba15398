package bot

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"matchbook/events"
	"matchbook/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

type Bot struct {
	config            Config
	session           *discordgo.Session
	userService       service.UserService
	bettingService    service.BettingService
	settlementService service.SettlementService
	matchService      service.MatchService
	leagueService     service.LeagueService
	eventBus          *events.Bus
}

func New(config Config, userService service.UserService, bettingService service.BettingService, settlementService service.SettlementService, matchService service.MatchService, leagueService service.LeagueService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		config:            config,
		session:           dg,
		userService:       userService,
		bettingService:    bettingService,
		settlementService: settlementService,
		matchService:      matchService,
		leagueService:     leagueService,
		eventBus:          eventBus,
	}

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleAutocomplete)

	// Register component interaction handlers
	dg.AddHandler(bot.handleBetInteraction)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	bot.subscribeMatchEvents()

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// subscribeMatchEvents re-renders match embeds when the engine reports a
// state change. Embeds are always regenerated from stored state.
func (b *Bot) subscribeMatchEvents() {
	refresh := func(matchID string) {
		if err := b.refreshMatchMessage(context.Background(), matchID); err != nil {
			log.Errorf("Failed to refresh match message for %s: %v", matchID, err)
		}
	}

	b.eventBus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BetPlacedEvent); ok {
			refresh(e.MatchID)
		}
	})
	b.eventBus.Subscribe(events.EventTypeMatchLocked, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MatchLockedEvent); ok {
			refresh(e.MatchID)
		}
	})
	b.eventBus.Subscribe(events.EventTypeMatchSettled, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MatchSettledEvent); ok {
			refresh(e.MatchID)
		}
	})
	b.eventBus.Subscribe(events.EventTypeMatchCancelled, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MatchCancelledEvent); ok {
			refresh(e.MatchID)
		}
	})
}

// refreshMatchMessage regenerates the embed and buttons of a posted match
// from its stored state
func (b *Bot) refreshMatchMessage(ctx context.Context, matchID string) error {
	detail, err := b.matchService.GetMatchDetail(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}
	match := detail.Match
	if match.MessageID == 0 || match.ChannelID == 0 {
		return nil // never posted
	}

	embed := buildMatchEmbed(b.session, b.config.GuildID, detail)
	components := buildBetButtons(match)

	channelID := formatID(match.ChannelID)
	messageID := formatID(match.MessageID)
	_, err = b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("failed to edit match message: %w", err)
	}
	return nil
}

func (b *Bot) registerCommands() error {
	adminPerms := int64(discordgo.PermissionAdministrator)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     "match",
			Description:              "Manage matches",
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Post a new match for betting",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "league", Description: "League", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "home", Description: "Home team", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "away", Description: "Away team", Required: true},
						{Type: discordgo.ApplicationCommandOptionNumber, Name: "home_odds", Description: "Decimal odds for a home win", Required: true},
						{Type: discordgo.ApplicationCommandOptionNumber, Name: "away_odds", Description: "Decimal odds for an away win", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "kickoff", Description: "Kickoff time (RFC 3339, e.g. 2026-09-01T18:30:00Z)", Required: true},
						{Type: discordgo.ApplicationCommandOptionNumber, Name: "draw_odds", Description: "Decimal odds for a draw", Required: false},
						{Type: discordgo.ApplicationCommandOptionString, Name: "handicap", Description: "Signed quarter-point line, e.g. +0.5 or -1.25", Required: false},
						{Type: discordgo.ApplicationCommandOptionString, Name: "venue", Description: "Venue", Required: false},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "info",
					Description: "Show a match and its bets",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "match", Description: "Match", Required: true, Autocomplete: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "Update odds or lock betting",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "match", Description: "Match", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionNumber, Name: "home_odds", Description: "Decimal odds for a home win", Required: false},
						{Type: discordgo.ApplicationCommandOptionNumber, Name: "away_odds", Description: "Decimal odds for an away win", Required: false},
						{Type: discordgo.ApplicationCommandOptionNumber, Name: "draw_odds", Description: "Decimal odds for a draw", Required: false},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "lock", Description: "Lock or unlock betting", Required: false},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "Enter the final score and settle all bets",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "match", Description: "Match", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "home_score", Description: "Home goals", Required: true},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "away_score", Description: "Away goals", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "cancel",
					Description: "Cancel a match and refund all stakes",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "match", Description: "Match", Required: true, Autocomplete: true},
					},
				},
			},
		},
		{
			Name:                     "league",
			Description:              "Manage leagues",
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Create a league in a channel",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "League name", Required: true},
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel for match posts", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "start", Description: "Start date (YYYY-MM-DD)", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "end", Description: "End date (YYYY-MM-DD)", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Description", Required: false},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "info",
					Description: "Show a league",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "league", Description: "League", Required: true, Autocomplete: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "Update a league",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "league", Description: "League", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "League name", Required: false},
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel for match posts", Required: false},
						{Type: discordgo.ApplicationCommandOptionString, Name: "start", Description: "Start date (YYYY-MM-DD)", Required: false},
						{Type: discordgo.ApplicationCommandOptionString, Name: "end", Description: "End date (YYYY-MM-DD)", Required: false},
						{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Description", Required: false},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "End a league",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "league", Description: "League", Required: true, Autocomplete: true},
					},
				},
			},
		},
		{
			Name:        "user",
			Description: "User statistics and points",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Show betting statistics for a user",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to look up (defaults to you)", Required: false},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "points",
					Description: "Adjust user points (admin)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add",
							Description: "Grant points to a user",
							Options: []*discordgo.ApplicationCommandOption{
								{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User", Required: true},
								{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "Points to add", Required: true},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove",
							Description: "Take points from a user",
							Options: []*discordgo.ApplicationCommandOption{
								{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User", Required: true},
								{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "Points to remove", Required: true},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "set",
							Description: "Set a user's points",
							Options: []*discordgo.ApplicationCommandOption{
								{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User", Required: true},
								{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "New balance", Required: true},
							},
						},
					},
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the points leaderboard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "Ranking window",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "weekly", Value: "weekly"},
						{Name: "monthly", Value: "monthly"},
						{Name: "all time", Value: "alltime"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					Required:    false,
				},
			},
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "match":
		b.handleMatchCommand(s, i)
	case "league":
		b.handleLeagueCommand(s, i)
	case "user":
		b.handleUserCommand(s, i)
	case "leaderboard":
		b.handleLeaderboard(s, i)
	}
}

// handleAutocomplete feeds match and league choices from the active lists
func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	data := i.ApplicationCommandData()
	focused := findFocusedOption(data.Options)
	if focused == nil {
		return
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	switch focused.Name {
	case "match":
		choices = b.matchChoices(context.Background(), focused.StringValue())
	case "league":
		choices = b.leagueChoices(context.Background(), focused.StringValue())
	default:
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		log.Printf("Error responding to autocomplete: %v", err)
	}
}

func (b *Bot) matchChoices(ctx context.Context, filter string) []*discordgo.ApplicationCommandOptionChoice {
	matches, err := b.matchService.ListActiveMatches(ctx)
	if err != nil {
		log.Printf("Error listing matches for autocomplete: %v", err)
		return nil
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, m := range matches {
		label := fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
		if filter != "" && !strings.Contains(strings.ToLower(label), strings.ToLower(filter)) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  label,
			Value: m.ID,
		})
		if len(choices) == 25 {
			break
		}
	}
	return choices
}

func (b *Bot) leagueChoices(ctx context.Context, filter string) []*discordgo.ApplicationCommandOptionChoice {
	leagues, err := b.leagueService.ListLeagues(ctx)
	if err != nil {
		log.Printf("Error listing leagues for autocomplete: %v", err)
		return nil
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, l := range leagues {
		if filter != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(filter)) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  l.Name,
			Value: l.ID,
		})
		if len(choices) == 25 {
			break
		}
	}
	return choices
}

// findFocusedOption digs through subcommands for the focused option
func findFocusedOption(options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Focused {
			return opt
		}
		if len(opt.Options) > 0 {
			if found := findFocusedOption(opt.Options); found != nil {
				return found
			}
		}
	}
	return nil
}

func (b *Bot) respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error sending error response: %v", err)
	}
}
