package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"matchbook/config"
	"matchbook/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleBetInteraction dispatches bet button clicks and stake modal submits
func (b *Bot) handleBetInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if strings.HasPrefix(customID, "bet_") {
			b.handleBetButton(s, i, customID)
		}
	case discordgo.InteractionModalSubmit:
		customID := i.ModalSubmitData().CustomID
		if strings.HasPrefix(customID, "bet_stake_modal:") {
			b.handleStakeModal(s, i, customID)
		}
	}
}

func (b *Bot) handleBetButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	ctx := context.Background()

	parts := strings.SplitN(customID, ":", 2)
	if len(parts) != 2 {
		return
	}

	var selection models.Outcome
	switch parts[0] {
	case "bet_home":
		selection = models.OutcomeHome
	case "bet_draw":
		selection = models.OutcomeDraw
	case "bet_away":
		selection = models.OutcomeAway
	default:
		return
	}
	matchID := parts[1]

	discordID, err := parseID(i.Member.User.ID)
	if err != nil {
		log.Printf("Error parsing Discord ID %s: %v", i.Member.User.ID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	cfg := config.Get()
	if cfg.BettingMode == config.ModeSimple {
		b.placeBet(ctx, s, i, matchID, discordID, selection, cfg.FixedStake)
		return
	}

	// Extended mode asks for the stake first. Creating the user here means
	// the modal can show the real balance even on a first bet.
	user, err := b.userService.GetOrCreateUser(ctx, discordID, i.Member.User.Username)
	if err != nil {
		log.Printf("Error loading user %d: %v", discordID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	modal := buildStakeModal(matchID, selection, user.Points)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &modal,
	})
	if err != nil {
		log.Printf("Error showing stake modal: %v", err)
	}
}

func (b *Bot) handleStakeModal(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	ctx := context.Background()

	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return
	}
	matchID := parts[1]
	selection, err := models.ParseOutcome(parts[2])
	if err != nil {
		return
	}

	discordID, err := parseID(i.Member.User.ID)
	if err != nil {
		log.Printf("Error parsing Discord ID %s: %v", i.Member.User.ID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	stakeInput := extractStakeInput(i.ModalSubmitData())
	stake, err := strconv.ParseInt(strings.TrimSpace(stakeInput), 10, 64)
	if err != nil || stake <= 0 {
		b.respondWithError(s, i, "The stake must be a positive whole number.")
		return
	}

	b.placeBet(ctx, s, i, matchID, discordID, selection, stake)
}

// placeBet runs the actual placement and reports the result ephemerally
func (b *Bot) placeBet(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, matchID string, discordID int64, selection models.Outcome, stake int64) {
	bet, err := b.bettingService.PlaceBet(ctx, matchID, discordID, i.Member.User.Username, selection, stake)
	if err != nil {
		b.respondRejection(s, i, err, "Unable to place the bet. Please try again.")
		return
	}

	match, err := b.matchService.GetMatch(ctx, matchID)
	if err != nil {
		log.Printf("Error loading match %s after bet: %v", matchID, err)
		b.respondEphemeral(s, i, fmt.Sprintf("Bet placed: %s points on %s.", FormatPoints(bet.Stake), bet.Selection))
		return
	}

	odds := match.OddsFor(selection)
	potential := int64(float64(bet.Stake) * odds)
	b.respondEphemeral(s, i, fmt.Sprintf("Bet placed: **%s points** on **%s** at %.2f. Potential payout: **%s points**.",
		FormatPoints(bet.Stake), selectionLabel(match, selection), odds, FormatPoints(potential)))
}

func extractStakeInput(data discordgo.ModalSubmitInteractionData) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == "stake" {
				return input.Value
			}
		}
	}
	return ""
}
